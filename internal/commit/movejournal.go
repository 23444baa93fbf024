package commit

import (
	"fmt"

	"jio/internal/errkind"
	"jio/internal/jdir"
)

// MoveJournal relocates h's journal directory to newPath, holding h.mu
// for the duration so a commit in flight (which takes h.mu before its
// first read of h.Jdir and holds it through locking and apply) can
// never observe or race against the swap. jdir.MoveJournal refuses
// while any transaction is in flight; this lock additionally closes
// the window between that check and the Manager swap below.
func (h *Handle) MoveJournal(newPath string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	moved, err := jdir.MoveJournal(h.Jdir, newPath)
	if err != nil {
		return errkind.Wrap(errkind.Storage, fmt.Errorf("move journal: %w", err))
	}
	h.Jdir = moved
	return nil
}
