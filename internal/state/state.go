// Package state persists the cached change-detection baseline between
// process invocations.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adamancini/planetsync/internal/types"
)

// CachedState is the persisted record of the last successful check and
// update. It is created on the first successful check and only ever
// rewritten whole, never partially.
type CachedState struct {
	Fingerprint   string    `json:"fingerprint"`
	IPs           []string  `json:"ips,omitempty"`
	LastCheckedAt time.Time `json:"last_checked_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// IsZero reports whether no baseline exists yet (the bootstrap case).
func (s *CachedState) IsZero() bool {
	return s.Fingerprint == ""
}

// Store reads and writes CachedState at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for the given state file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the cached state. A missing file yields a zero state and
// no error. An unreadable or corrupt file yields a zero state plus a
// StateCorruptionError: the caller logs a warning and proceeds with
// bootstrap behavior, it never treats this as fatal.
func (s *Store) Load() (*CachedState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &CachedState{}, nil
		}
		return &CachedState{}, &types.StateCorruptionError{Path: s.path, Err: err}
	}

	var st CachedState
	if err := json.Unmarshal(data, &st); err != nil {
		return &CachedState{}, &types.StateCorruptionError{Path: s.path, Err: err}
	}

	return &st, nil
}

// Save writes the state atomically: marshal to a temp file in the same
// directory, then rename. A crash mid-save leaves either the previous
// state or the new one, never a torn file.
func (s *Store) Save(st *CachedState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close state: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move state into place: %w", err)
	}

	return nil
}
