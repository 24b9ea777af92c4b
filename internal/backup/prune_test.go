package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func managerWithBackups(t *testing.T, count int) *Manager {
	t.Helper()
	dir := t.TempDir()
	target := filepath.Join(dir, "planet")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write target: %v", err)
	}

	m := NewManager(target)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	for i := 0; i < count; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		m.now = func() time.Time { return ts }
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	m.now = time.Now
	return m
}

func TestPrune(t *testing.T) {
	m := managerWithBackups(t, 8)

	result, err := m.Prune(5)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Kept != 5 {
		t.Errorf("Kept = %d, want 5", result.Kept)
	}
	if len(result.Deleted) != 3 {
		t.Errorf("Deleted = %d, want 3", len(result.Deleted))
	}

	remaining, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(remaining) != 5 {
		t.Errorf("remaining backups = %d, want 5", len(remaining))
	}

	// The oldest three must be the ones gone.
	for _, b := range remaining {
		for _, d := range result.Deleted {
			if b.CreatedAt.Before(d.CreatedAt) {
				t.Errorf("kept backup %v is older than deleted %v", b.CreatedAt, d.CreatedAt)
			}
		}
	}
}

func TestPruneUnderLimit(t *testing.T) {
	m := managerWithBackups(t, 2)

	result, err := m.Prune(5)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Kept != 2 || len(result.Deleted) != 0 {
		t.Errorf("Prune() = kept %d deleted %d, want 2/0", result.Kept, len(result.Deleted))
	}
}

func TestPruneNegativeKeep(t *testing.T) {
	m := managerWithBackups(t, 1)
	if _, err := m.Prune(-1); err == nil {
		t.Error("Prune(-1) expected error")
	}
}
