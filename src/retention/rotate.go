package retention

import (
	"errors"

	"stack-backup/src/backupstore"
)

// Plan returns the backups rotation would delete: every unprotected backup
// at position >= max in the newest-first ordering. Protected backups are
// never candidates but still count against the limit, so they do not push
// extra unprotected backups out of the window.
func Plan(store *backupstore.Store, max int) ([]backupstore.Entry, error) {
	if max <= 0 {
		return nil, errors.New("retention limit must be > 0")
	}
	entries, err := store.List()
	if err != nil {
		return nil, err
	}
	var candidates []backupstore.Entry
	for i, e := range entries {
		if i < max {
			continue
		}
		if e.Protected() {
			continue
		}
		candidates = append(candidates, e)
	}
	return candidates, nil
}

// Rotate applies the plan and returns the removed names.
func Rotate(store *backupstore.Store, max int) ([]string, error) {
	candidates, err := Plan(store, max)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, e := range candidates {
		if err := store.Remove(e.Name); err != nil {
			return removed, err
		}
		removed = append(removed, e.Name)
	}
	return removed, nil
}
