// Package replacer swaps the live planet file atomically, with backup
// and rollback support.
package replacer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adamancini/planetsync/internal/backup"
	"github.com/adamancini/planetsync/internal/logging"
	"github.com/adamancini/planetsync/internal/types"
)

// Replacer performs backup-then-atomic-replace of a target file.
//
// The replace sequence is: copy the original to a timestamped backup in
// the same directory, write the new content to a temp file on the same
// filesystem, then rename the temp file onto the target. An external
// reader never observes a partially-written target: rename is atomic,
// so the file is either the old bytes or the new bytes, never a
// truncated in-between.
type Replacer struct {
	log *logging.Logger
}

// New creates a file replacer.
func New(log *logging.Logger) *Replacer {
	return &Replacer{log: log.WithComponent("replacer")}
}

// Replace swaps target's content for newContent and returns the backup
// record for this attempt. On any failure the target still holds its
// original bytes and there is nothing to roll back.
func (r *Replacer) Replace(targetPath string, newContent []byte) (*backup.Record, error) {
	mode := os.FileMode(0644)
	if fi, err := os.Stat(targetPath); err == nil {
		mode = fi.Mode().Perm()
	}

	rec, err := backup.NewManager(targetPath).Create()
	if err != nil {
		return nil, classify(targetPath, fmt.Errorf("failed to create backup: %w", err))
	}

	dir := filepath.Dir(targetPath)
	tmp, err := os.CreateTemp(dir, ".planet-*")
	if err != nil {
		r.discard(rec)
		return nil, classify(dir, fmt.Errorf("failed to create temp file: %w", err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(newContent); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		r.discard(rec)
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		r.discard(rec)
		return nil, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		r.discard(rec)
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, mode); err != nil {
		_ = os.Remove(tmpName)
		r.discard(rec)
		return nil, fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpName, targetPath); err != nil {
		_ = os.Remove(tmpName)
		r.discard(rec)
		return nil, classify(dir, fmt.Errorf("failed to move new file into place: %w", err))
	}

	r.log.Info("planet file replaced", "target", targetPath, "backup", rec.BackupPath, "bytes", len(newContent))
	return rec, nil
}

// Rollback restores the backup onto the original path using the same
// atomic-rename technique. It is idempotent: once the backup has been
// consumed and the original is in place, calling it again is a no-op.
func (r *Replacer) Rollback(rec *backup.Record) error {
	if rec == nil {
		return fmt.Errorf("no backup record to roll back")
	}

	if _, err := os.Stat(rec.BackupPath); os.IsNotExist(err) {
		if _, err := os.Stat(rec.OriginalPath); err == nil {
			// Already rolled back; the backup was consumed by a prior
			// call and the original exists.
			return nil
		}
		return fmt.Errorf("backup %s missing and original %s absent: cannot roll back", rec.BackupPath, rec.OriginalPath)
	}

	if err := os.Rename(rec.BackupPath, rec.OriginalPath); err != nil {
		return classify(filepath.Dir(rec.OriginalPath), fmt.Errorf("failed to restore backup: %w", err))
	}

	r.log.Info("planet file rolled back", "target", rec.OriginalPath)
	return nil
}

// discard removes a backup created for an attempt that never touched
// the target, so failed attempts don't accumulate stale backups.
func (r *Replacer) discard(rec *backup.Record) {
	if rec != nil {
		_ = os.Remove(rec.BackupPath)
	}
}

// classify promotes EACCES-family failures to PermissionError so the
// caller can surface an actionable message instead of a bare I/O error.
func classify(path string, err error) error {
	if errors.Is(err, os.ErrPermission) {
		return &types.PermissionError{Path: path, Err: err}
	}
	return err
}
