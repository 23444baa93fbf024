package commit

import (
	"fmt"
	"os"

	"jio/internal/errkind"
)

// lingerEntry tracks one committed transaction whose journal file has
// not yet been unlinked.
type lingerEntry struct {
	id   uint32
	path string
}

// registerLinger records a lingering transaction file. The caller must
// already hold h.mu (Commit holds it for the whole locking/apply
// window; see the comment there).
func (h *Handle) registerLinger(id uint32, path string) {
	h.linger = append(h.linger, lingerEntry{id: id, path: path})
	h.Metrics.SetLingerOutstanding(len(h.linger))
	h.diagf("transaction %d: journal file lingering at %s", id, path)
}

// Jsync walks the linger registry (§4.8): fsyncs the data file once,
// then unlinks every tracked journal file and clears the list. The
// "committed data on disk before journal unlink" invariant already
// holds from each commit's own fsync, so this fsync is a belt-and-
// braces durability flush, not a correctness requirement for the
// unlinks that follow.
func (h *Handle) Jsync() error {
	h.mu.Lock()
	entries := h.linger
	h.linger = nil
	h.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	if err := h.DataFile.Sync(); err != nil {
		h.mu.Lock()
		h.linger = append(entries, h.linger...)
		h.mu.Unlock()
		return errkind.Wrap(errkind.Storage, fmt.Errorf("jsync: fsync data file: %w", err))
	}

	var firstErr error
	for _, e := range entries {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("jsync: unlink transaction %d: %w", e.id, err)
		}
	}
	if err := h.Jdir.FsyncDir(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("jsync: %w", err)
	}
	h.Metrics.SetLingerOutstanding(0)
	if firstErr != nil {
		return errkind.Wrap(errkind.Storage, firstErr)
	}
	return nil
}

// LingerCount reports how many committed transactions are currently
// awaiting Jsync, for tests and diagnostics.
func (h *Handle) LingerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.linger)
}
