// Package commit implements the commit engine (§4.5): a single
// transaction's lifecycle from locking through journal write, data
// apply, and unlink, plus rollback-by-reversed-transaction. The linger
// registry (§4.8) lives in linger.go.
package commit

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sync"
	"time"

	"jio/internal/codec"
	"jio/internal/errkind"
	"jio/internal/filelock"
	"jio/internal/jdir"
	"jio/internal/metrics"
)

// OpenFlags is the library flag bit field from §6.
type OpenFlags uint32

const (
	// NoLock skips data-file range locking; the caller promises to be
	// single-threaded with respect to this handle.
	NoLock OpenFlags = 1 << iota
	// NoRollback refuses Rollback on any transaction from this handle.
	NoRollback
	// Linger defers journal-file unlink to an explicit Jsync call.
	Linger
	// ReadOnly makes Commit fail with ErrReadOnly. Add still accepts
	// operations on such a handle; since none of its transactions can
	// commit, none can be rolled back either.
	ReadOnly
)

// Has reports whether every bit in want is set in f.
func (f OpenFlags) Has(want OpenFlags) bool { return f&want == want }

// Handle is a journal-attached open data file: the commit engine's
// view of §3's FileHandle, minus the parts (the public flag type, the
// caller-facing Open/Close) that belong to the root package.
type Handle struct {
	DataFile *os.File
	Jdir     *jdir.Manager
	Flags    OpenFlags

	// Diagnostics gates the diagf log line, mirroring the teacher's
	// (*DB).diagf gate.
	Diagnostics bool
	Metrics     *metrics.Collector

	mu     sync.Mutex // serializes linger-registry access and move_journal
	linger []lingerEntry
}

// NewHandle wraps an already-open data file and journal directory.
func NewHandle(dataFile *os.File, jd *jdir.Manager, flags OpenFlags, diagnostics bool, mc *metrics.Collector) *Handle {
	return &Handle{DataFile: dataFile, Jdir: jd, Flags: flags, Diagnostics: diagnostics, Metrics: mc}
}

func (h *Handle) diagf(format string, args ...interface{}) {
	if !h.Diagnostics {
		return
	}
	log.Printf("[jio] "+format, args...)
}

// Operation is one (offset, payload) write, plus the pre-image and
// extension bookkeeping the commit engine fills in during step 5.
type Operation struct {
	Offset    int64
	Payload   []byte
	preImage  []byte
	extending bool
}

// Transaction is the commit engine's view of §3's Transaction.
type Transaction struct {
	handle *Handle
	mu     sync.Mutex

	id    uint32
	flags codec.Flags
	ops   []Operation

	originalLength      int64
	anyExtending        bool
	truncateAfterApply  *int64 // set only on a Rollback's reverse transaction

	// journalSize tracks the worst-case encoded record size (§4.5:
	// "cumulative journal-file size must not exceed the platform's
	// ssize_t maximum, enforced at add time"), so Add can reject before
	// the transaction ever grows too large to encode. It starts at the
	// fixed header+trailer cost and grows by each op's worst case: the
	// pre-image captured at commit time is never longer than the
	// payload it replaces, so charging 2x the payload length up front
	// is always a safe upper bound.
	journalSize int64

	// crashAfter is a test-only checkpoint hook (see commit_test.go in
	// this package). It is never set outside this package's own tests.
	crashAfter string
}

// NewTransaction prepares an empty transaction against h.
func (h *Handle) NewTransaction() *Transaction {
	return &Transaction{handle: h, journalSize: int64(codec.HeaderSize + codec.TrailerSize)}
}

// ID returns the transaction's assigned ID, or 0 if not yet committed.
func (t *Transaction) ID() uint32 { return t.id }

// Flags returns the transaction's current flag bits.
func (t *Transaction) Flags() codec.Flags { return t.flags }

// Add appends one write operation. The payload is copied: trans_add's
// buffer is borrowed per §9's ownership rule, so the caller may reuse
// it after Add returns.
func (t *Transaction) Add(payload []byte, offset int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.flags.Has(codec.FlagCommitted) || t.flags.Has(codec.FlagRolledBack) {
		return ErrTerminated
	}
	if offset < 0 {
		return ErrNegativeOffset
	}
	if len(payload) == 0 {
		return ErrEmptyPayload
	}

	plen := int64(len(payload))
	if plen > (math.MaxInt64-int64(codec.OpHeaderSize))/2 {
		return ErrJournalTooLarge
	}
	opCost := int64(codec.OpHeaderSize) + 2*plen
	if t.journalSize > math.MaxInt64-opCost {
		return ErrJournalTooLarge
	}

	cp := make([]byte, len(payload))
	copy(cp, payload)
	t.ops = append(t.ops, Operation{Offset: offset, Payload: cp})
	t.journalSize += opCost
	return nil
}

// buildFlags assembles the in-memory/on-disk flag bits a freshly
// committing transaction should carry, per the handle's open flags
// ("Supplemented features": these persist on the wire, not just in
// memory).
func buildFlags(h *Handle) codec.Flags {
	var f codec.Flags
	if h.Flags.Has(NoLock) {
		f |= codec.FlagNoLock
	}
	if h.Flags.Has(Linger) {
		f |= codec.FlagLinger
	}
	return f
}

// Commit runs the eight-step protocol of §4.5. On any error before
// step 7 (the point of no return) it unwinds every lock and unlinks
// the partial journal file; after step 7 begins, failure is no longer
// revertible and is instead something fsck will classify and fix.
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.handle

	// Step 1: reject.
	if len(t.ops) == 0 {
		return ErrNoOperations
	}
	if t.flags.Has(codec.FlagCommitted) || t.flags.Has(codec.FlagRolledBack) {
		return ErrTerminated
	}
	if h.Flags.Has(ReadOnly) {
		return ErrReadOnly
	}

	// §5's ordering guarantee: a per-handle mutex serializes a
	// transaction's whole view of h.Jdir, because fcntl locks never
	// block a second acquisition by the same process — only
	// cross-process contention is visible to the OS. Held from here,
	// before the first read of h.Jdir, through the lock release in
	// step 8, so MoveJournal (which also takes h.mu) can never swap
	// h.Jdir out from under a commit in flight.
	h.mu.Lock()
	defer h.mu.Unlock()

	// Step 2: allocate ID, create the journal file.
	id, err := h.Jdir.NextID()
	if err != nil {
		return errkind.Wrap(errkind.Storage, fmt.Errorf("commit: allocate transaction id: %w", err))
	}
	journalPath := h.Jdir.TransPath(id)
	jf, err := os.OpenFile(journalPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errkind.Wrap(errkind.Storage, fmt.Errorf("commit: create journal file: %w", err))
	}
	h.diagf("transaction %d: journal file created at %s", id, journalPath)

	abort := func(cause error) error {
		_ = filelock.Release(int(jf.Fd()), 0, 0)
		jf.Close()
		_ = os.Remove(journalPath)
		return cause
	}

	// Step 3: whole-file lock on the journal file.
	if err := filelock.Acquire(int(jf.Fd()), 0, 0); err != nil {
		return abort(errkind.Wrap(errkind.Storage, fmt.Errorf("commit: lock journal file: %w", err)))
	}

	// Step 4: data-file range locks.
	ranges := mergeRanges(t.ops)
	var locked []lockRange
	if !h.Flags.Has(NoLock) {
		lockStart := time.Now()
		for _, r := range ranges {
			if err := filelock.Acquire(int(h.DataFile.Fd()), r.start, r.length); err != nil {
				for _, lr := range locked {
					_ = filelock.Release(int(h.DataFile.Fd()), lr.start, lr.length)
				}
				return abort(errkind.Wrap(errkind.Storage, fmt.Errorf("commit: lock data range: %w", err)))
			}
			locked = append(locked, r)
		}
		h.Metrics.ObserveLockWaitSeconds(time.Since(lockStart).Seconds())
	}
	releaseDataLocks := func() {
		for _, r := range locked {
			_ = filelock.Release(int(h.DataFile.Fd()), r.start, r.length)
		}
	}

	// Step 5: snapshot pre-images, handling EOF-extension.
	st, err := h.DataFile.Stat()
	if err != nil {
		releaseDataLocks()
		return abort(errkind.Wrap(errkind.Storage, fmt.Errorf("commit: stat data file: %w", err)))
	}
	curLen := st.Size()
	t.originalLength = curLen

	for i := range t.ops {
		op := &t.ops[i]
		avail := curLen - op.Offset
		if avail < 0 {
			avail = 0
		}
		plen := int64(len(op.Payload))
		if plen > avail {
			plen = avail
		}

		var preimage []byte
		if plen > 0 {
			preimage = make([]byte, plen)
			if _, err := h.DataFile.ReadAt(preimage, op.Offset); err != nil && err != io.EOF {
				releaseDataLocks()
				return abort(errkind.Wrap(errkind.Storage, fmt.Errorf("commit: read pre-image: %w", err)))
			}
		}
		op.preImage = preimage

		op.extending = int64(len(op.Payload)) > plen
		if op.extending {
			t.anyExtending = true
			newLen := op.Offset + int64(len(op.Payload))
			if newLen > curLen {
				if err := h.DataFile.Truncate(newLen); err != nil {
					releaseDataLocks()
					return abort(errkind.Wrap(errkind.Storage, fmt.Errorf("commit: extend data file: %w", err)))
				}
				curLen = newLen
			}
		}
	}

	// Step 6: serialize, fsync journal file, fsync journal directory.
	t.flags |= buildFlags(h)
	record := &codec.Record{ID: id, Flags: t.flags, Ops: make([]codec.Op, len(t.ops))}
	for i, op := range t.ops {
		record.Ops[i] = codec.Op{Offset: uint64(op.Offset), Payload: op.Payload, PreImage: op.preImage}
	}
	enc := codec.Encode(record)
	if err := writeFullAt(jf, enc, 0); err != nil {
		releaseDataLocks()
		return abort(errkind.Wrap(errkind.Storage, fmt.Errorf("commit: write journal record: %w", err)))
	}
	if err := jf.Sync(); err != nil {
		releaseDataLocks()
		return abort(errkind.Wrap(errkind.Storage, fmt.Errorf("commit: fsync journal file: %w", err)))
	}
	if err := h.Jdir.FsyncDir(); err != nil {
		releaseDataLocks()
		return abort(errkind.Wrap(errkind.Storage, fmt.Errorf("commit: %w", err)))
	}
	h.diagf("transaction %d: journal record durable", id)

	if t.crashAfter == "journal-fsync" {
		releaseDataLocks()
		_ = filelock.Release(int(jf.Fd()), 0, 0)
		jf.Close()
		h.Metrics.CommitsTotal(metrics.CommitCrashed)
		return ErrSimulatedCrash
	}

	// Step 7: point of no return. Apply writes, fsync data file.
	for _, op := range t.ops {
		if err := writeFullAt(h.DataFile, op.Payload, op.Offset); err != nil {
			h.diagf("transaction %d: apply error after point of no return: %v", id, err)
			h.Metrics.CommitsTotal(metrics.CommitFailed)
			return errkind.Wrap(errkind.Storage, fmt.Errorf("commit: apply operation: %w", err))
		}
	}
	if t.truncateAfterApply != nil {
		if err := h.DataFile.Truncate(*t.truncateAfterApply); err != nil {
			h.Metrics.CommitsTotal(metrics.CommitFailed)
			return errkind.Wrap(errkind.Storage, fmt.Errorf("commit: truncate-back: %w", err))
		}
	}
	if err := h.DataFile.Sync(); err != nil {
		h.Metrics.CommitsTotal(metrics.CommitFailed)
		return errkind.Wrap(errkind.Storage, fmt.Errorf("commit: fsync data file: %w", err))
	}
	h.diagf("transaction %d: data file durable", id)

	if t.crashAfter == "data-apply" {
		releaseDataLocks()
		_ = filelock.Release(int(jf.Fd()), 0, 0)
		jf.Close()
		h.Metrics.CommitsTotal(metrics.CommitCrashed)
		return ErrSimulatedCrash
	}

	if h.Flags.Has(Linger) {
		h.registerLinger(id, journalPath)
	} else {
		if err := h.Jdir.FsyncDir(); err != nil {
			h.Metrics.CommitsTotal(metrics.CommitFailed)
			return errkind.Wrap(errkind.Storage, fmt.Errorf("commit: %w", err))
		}
		if err := os.Remove(journalPath); err != nil {
			h.Metrics.CommitsTotal(metrics.CommitFailed)
			return errkind.Wrap(errkind.Storage, fmt.Errorf("commit: unlink journal file: %w", err))
		}
		if err := h.Jdir.FsyncDir(); err != nil {
			h.Metrics.CommitsTotal(metrics.CommitFailed)
			return errkind.Wrap(errkind.Storage, fmt.Errorf("commit: %w", err))
		}
		h.diagf("transaction %d: journal file unlinked", id)
	}

	// Step 8.
	t.id = id
	t.flags |= codec.FlagCommitted
	releaseDataLocks()
	_ = filelock.Release(int(jf.Fd()), 0, 0)
	jf.Close()
	h.Metrics.CommitsTotal(metrics.CommitSucceeded)
	return nil
}

// Rollback constructs the reverse transaction (payload/pre-image roles
// swapped, with a truncate-back directive for any operation that
// extended the file) and commits it, per §4.5.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	h := t.handle
	if h.Flags.Has(NoRollback) {
		t.mu.Unlock()
		return ErrRollbackForbidden
	}
	if t.flags.Has(codec.FlagRolledBack) {
		t.mu.Unlock()
		return ErrTerminated
	}
	if !t.flags.Has(codec.FlagCommitted) {
		t.mu.Unlock()
		return ErrNotCommitted
	}
	ops := make([]Operation, len(t.ops))
	copy(ops, t.ops)
	anyExtending := t.anyExtending
	originalLength := t.originalLength
	t.mu.Unlock()

	reverse := h.NewTransaction()
	reverse.flags |= codec.FlagRollingBack
	for _, op := range ops {
		if len(op.preImage) == 0 {
			// Nothing existed here before the original write; the
			// reverse operation still needs a payload to hold the
			// range's locking and codec slot, but writing zero bytes
			// back is a no-op — the final truncate-down (if any)
			// removes the range entirely. Skip operations that would
			// otherwise add a zero-length op, since those are rejected.
			continue
		}
		if err := reverse.Add(op.preImage, op.Offset); err != nil {
			return err
		}
	}
	if anyExtending {
		reverse.truncateAfterApply = &originalLength
	}
	if len(reverse.ops) == 0 {
		// Every original operation was wholly beyond EOF (preImage
		// empty implies extending, since Add rejects empty payloads):
		// the only work rollback has to do is the truncate-down.
		h.mu.Lock()
		err := h.DataFile.Truncate(originalLength)
		if err == nil {
			err = h.DataFile.Sync()
		}
		h.mu.Unlock()
		if err != nil {
			return errkind.Wrap(errkind.Storage, fmt.Errorf("rollback: truncate-back: %w", err))
		}
	} else if err := reverse.Commit(); err != nil {
		return err
	}

	t.mu.Lock()
	t.flags |= codec.FlagRolledBack
	t.mu.Unlock()
	h.Metrics.RollbacksTotal()
	return nil
}

// Free releases the in-memory transaction's resources. Since this
// implementation holds no off-heap state beyond Go slices, Free is a
// no-op kept for parity with §6's trans_free entry in the public API
// table.
func (t *Transaction) Free() {}
