// Package backup handles timestamped backups of the live planet file.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// suffixFormat is the timestamp layout appended to backup file names,
// e.g. "planet.backup_20240131_154502".
const suffixFormat = "20060102_150405"

// Record identifies one backup of the live planet file. Exactly one
// active record exists per update attempt; it is consumed (restored or
// discarded) when the cycle ends.
type Record struct {
	OriginalPath string    `json:"original_path"`
	BackupPath   string    `json:"backup_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// Info provides summary information about a backup for listing.
type Info struct {
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

// Manager creates and retains backups next to a target file. Backups
// live in the target's directory so a restore is always a same-
// filesystem rename.
type Manager struct {
	targetPath string
	now        func() time.Time
}

// NewManager creates a backup manager for the given target file.
func NewManager(targetPath string) *Manager {
	return &Manager{
		targetPath: targetPath,
		now:        time.Now,
	}
}

// Create copies the target file to a timestamped sibling and returns
// the record. The target must exist: a missing original is a loud
// failure, not a silent skip, because it means the installation this
// tool manages is not where the configuration says it is.
func (m *Manager) Create() (*Record, error) {
	src, err := os.Open(m.targetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for backup: %w", m.targetPath, err)
	}
	defer func() { _ = src.Close() }()

	srcInfo, err := src.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", m.targetPath, err)
	}

	createdAt := m.now()
	backupPath := fmt.Sprintf("%s.backup_%s", m.targetPath, createdAt.Format(suffixFormat))

	dst, err := os.OpenFile(backupPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(backupPath) // clean up partial backup
		return nil, fmt.Errorf("failed to copy to backup: %w", err)
	}

	return &Record{
		OriginalPath: m.targetPath,
		BackupPath:   backupPath,
		CreatedAt:    createdAt,
	}, nil
}

// List returns all backups of the target, newest first.
func (m *Manager) List() ([]Info, error) {
	dir := filepath.Dir(m.targetPath)
	base := filepath.Base(m.targetPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	prefix := base + ".backup_"
	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}

		createdAt := fi.ModTime()
		if ts, err := time.ParseInLocation(suffixFormat, strings.TrimPrefix(entry.Name(), prefix), time.Local); err == nil {
			createdAt = ts
		}

		backups = append(backups, Info{
			Path:      filepath.Join(dir, entry.Name()),
			CreatedAt: createdAt,
			Size:      fi.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Latest returns the most recent backup, or an error if none exist.
func (m *Manager) Latest() (*Info, error) {
	backups, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, fmt.Errorf("no backups found for %s", m.targetPath)
	}
	return &backups[0], nil
}

// Delete removes a backup file by path. The path must be one of this
// target's backups; anything else is rejected.
func (m *Manager) Delete(path string) error {
	prefix := m.targetPath + ".backup_"
	if !strings.HasPrefix(path, prefix) {
		return fmt.Errorf("not a backup of %s: %s", m.targetPath, path)
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup not found: %s", path)
		}
		return fmt.Errorf("failed to delete backup: %w", err)
	}

	return nil
}

// TargetPath returns the live file this manager backs up.
func (m *Manager) TargetPath() string {
	return m.targetPath
}
