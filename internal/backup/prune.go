package backup

import (
	"fmt"
)

// DefaultKeepCount is the default number of planet backups to retain.
const DefaultKeepCount = 5

// PruneResult contains information about what was pruned.
type PruneResult struct {
	Deleted []Info
	Kept    int
}

// Prune removes old backups, keeping only the most recent N.
func (m *Manager) Prune(keep int) (*PruneResult, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep count must be non-negative")
	}

	backups, err := m.List()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{}

	// Backups are already sorted newest first.
	if len(backups) <= keep {
		result.Kept = len(backups)
		return result, nil
	}

	toDelete := backups[keep:]
	result.Kept = keep

	for _, b := range toDelete {
		if err := m.Delete(b.Path); err != nil {
			return nil, fmt.Errorf("failed to delete backup %s: %w", b.Path, err)
		}
		result.Deleted = append(result.Deleted, b)
	}

	return result, nil
}
