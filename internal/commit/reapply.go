package commit

import (
	"fmt"
	"os"

	"jio/internal/codec"
	"jio/internal/errkind"
	"jio/internal/filelock"
)

// Reapply drives the data-file-apply tail of the commit protocol
// (§4.5 steps 4 and 7-8) for a transaction record that fsck has
// already found on disk, decoded, and checksum-verified — so steps
// 1-3 and 6 (reject checks, ID allocation, journal-file creation and
// fsync) are moot: the record is already durable at path. This is
// "clear the txn's flags and run commit" from §4.6, specialized to
// avoid re-allocating a new ID and a new journal file for data that
// is already safely on disk.
func (h *Handle) Reapply(id uint32, path string, record *codec.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ops := make([]Operation, len(record.Ops))
	for i, op := range record.Ops {
		ops[i] = Operation{Offset: int64(op.Offset), Payload: op.Payload}
	}

	ranges := mergeRanges(ops)
	var locked []lockRange
	if !h.Flags.Has(NoLock) {
		for _, r := range ranges {
			if err := filelock.Acquire(int(h.DataFile.Fd()), r.start, r.length); err != nil {
				for _, lr := range locked {
					_ = filelock.Release(int(h.DataFile.Fd()), lr.start, lr.length)
				}
				return errkind.Wrap(errkind.Storage, fmt.Errorf("reapply: lock data range: %w", err))
			}
			locked = append(locked, r)
		}
	}
	defer func() {
		for _, r := range locked {
			_ = filelock.Release(int(h.DataFile.Fd()), r.start, r.length)
		}
	}()

	for _, op := range ops {
		if err := writeFullAt(h.DataFile, op.Payload, op.Offset); err != nil {
			return errkind.Wrap(errkind.Storage, fmt.Errorf("reapply: transaction %d: apply operation: %w", id, err))
		}
	}
	if err := h.DataFile.Sync(); err != nil {
		return errkind.Wrap(errkind.Storage, fmt.Errorf("reapply: transaction %d: fsync data file: %w", id, err))
	}
	h.diagf("transaction %d: reapplied", id)

	if h.Flags.Has(Linger) {
		h.registerLinger(id, path)
		return nil
	}
	if err := h.Jdir.FsyncDir(); err != nil {
		return errkind.Wrap(errkind.Storage, fmt.Errorf("reapply: %w", err))
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errkind.Wrap(errkind.Storage, fmt.Errorf("reapply: transaction %d: unlink journal file: %w", id, err))
	}
	if err := h.Jdir.FsyncDir(); err != nil {
		return errkind.Wrap(errkind.Storage, fmt.Errorf("reapply: %w", err))
	}
	return nil
}
