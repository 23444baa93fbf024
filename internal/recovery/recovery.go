// Package recovery implements fsck (§4.6): scanning a journal
// directory, classifying each surviving transaction file, and
// re-applying the ones that are whole. Cleanup (§4.7) lives in
// cleanup.go.
package recovery

import (
	"errors"
	"fmt"
	"log"
	"os"

	"jio/internal/codec"
	"jio/internal/commit"
	"jio/internal/errkind"
	"jio/internal/filelock"
	"jio/internal/jdir"
	"jio/internal/metrics"
)

// Result tallies how fsck classified every transaction file it found,
// mirroring §6's Result struct exactly.
type Result struct {
	Total      int
	Invalid    int
	InProgress int
	Broken     int
	Corrupt    int
	ApplyError int
	Reapplied  int
}

// Options configures one fsck run. JournalPath overrides the derived
// journal directory, matching fsck's optional journal-path parameter.
// Diagnostics and Metrics are threaded through to the re-apply commits
// the same way a live Handle would use them.
type Options struct {
	JournalPath string
	Diagnostics bool
	Metrics     *metrics.Collector
}

func diagf(on bool, format string, args ...interface{}) {
	if !on {
		return
	}
	log.Printf("[jio] "+format, args...)
}

// Fsck runs the recovery procedure against dataPath, per §4.6.
func Fsck(dataPath string, opts Options) (Result, error) {
	var res Result

	df, err := os.OpenFile(dataPath, os.O_RDWR|os.O_SYNC, 0600)
	if err != nil {
		return res, errkind.Wrap(errkind.Storage, fmt.Errorf("fsck: open data file: %w", err))
	}
	defer df.Close()

	jd, err := jdir.OpenExisting(dataPath, opts.JournalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return res, errkind.Wrap(errkind.JournalAbsent, fmt.Errorf("fsck: %w", err))
		}
		return res, errkind.Wrap(errkind.JournalAbsent, fmt.Errorf("fsck: open journal directory: %w", err))
	}
	defer jd.Close()

	_, maxID, err := jd.ListTransactionIDs()
	if err != nil {
		return res, errkind.Wrap(errkind.Storage, fmt.Errorf("fsck: %w", err))
	}

	// Step 3: rewrite the counter so future commits never collide with
	// a surviving ID. This must happen under the lock-file lock, same
	// as the allocator.
	if err := filelock.Acquire(jd.LockFd(), 0, 0); err != nil {
		return res, errkind.Wrap(errkind.Storage, fmt.Errorf("fsck: lock counter: %w", err))
	}
	setErr := jd.SetCounter(maxID)
	_ = filelock.Release(jd.LockFd(), 0, 0)
	if setErr != nil {
		return res, errkind.Wrap(errkind.Storage, fmt.Errorf("fsck: %w", setErr))
	}
	diagf(opts.Diagnostics, "fsck: counter rewritten to %d", maxID)

	h := commit.NewHandle(df, jd, 0, opts.Diagnostics, opts.Metrics)

	// Step 4: strict ascending order, mandatory — later transactions
	// may overwrite regions an earlier one also touched.
	for id := uint32(1); id <= maxID; id++ {
		res.Total++
		class, err := recoverOne(h, jd, id, opts)
		switch class {
		case classInvalid:
			res.Invalid++
		case classInProgress:
			res.InProgress++
			opts.Metrics.ContentionSkip()
		case classBroken:
			res.Broken++
		case classCorrupt:
			res.Corrupt++
		case classApplyError:
			res.ApplyError++
		case classReapplied:
			res.Reapplied++
			opts.Metrics.FsckReapplied()
		}
		opts.Metrics.FsckClassified(metricsClass(class))
		diagf(opts.Diagnostics, "fsck: transaction %d classified %s (%v)", id, class, err)
	}

	return res, nil
}

type classification int

const (
	classInvalid classification = iota
	classInProgress
	classBroken
	classCorrupt
	classApplyError
	classReapplied
)

func (c classification) String() string {
	switch c {
	case classInvalid:
		return "invalid"
	case classInProgress:
		return "in_progress"
	case classBroken:
		return "broken"
	case classCorrupt:
		return "corrupt"
	case classApplyError:
		return "apply_error"
	case classReapplied:
		return "reapplied"
	default:
		return "unknown"
	}
}

func metricsClass(c classification) metrics.FsckClass {
	switch c {
	case classInvalid:
		return metrics.ClassInvalid
	case classInProgress:
		return metrics.ClassInProgress
	case classBroken:
		return metrics.ClassBroken
	case classCorrupt:
		return metrics.ClassCorrupt
	case classApplyError:
		return metrics.ClassApplyError
	case classReapplied:
		return metrics.ClassReapplied
	default:
		return metrics.ClassBroken
	}
}

// recoverOne classifies and, if possible, re-applies transaction id.
func recoverOne(h *commit.Handle, jd *jdir.Manager, id uint32, opts Options) (classification, error) {
	path := jd.TransPath(id)

	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		if os.IsNotExist(err) {
			return classInvalid, nil
		}
		return classBroken, err
	}
	defer f.Close()

	if lockErr := filelock.AcquireNonblocking(int(f.Fd()), 0, 0); lockErr != nil {
		if errors.Is(lockErr, filelock.ErrWouldBlock) {
			return classInProgress, nil
		}
		return classBroken, lockErr
	}
	defer filelock.Release(int(f.Fd()), 0, 0)

	st, err := f.Stat()
	if err != nil {
		return classBroken, err
	}
	if st.Size() < codec.HeaderSize+codec.TrailerSize {
		return classBroken, fmt.Errorf("fsck: transaction %d shorter than fixed header", id)
	}

	raw := make([]byte, st.Size())
	if _, err := f.ReadAt(raw, 0); err != nil {
		return classBroken, err
	}

	record, err := codec.Decode(raw)
	if err != nil {
		return classBroken, err
	}

	if !codec.Verify(raw) {
		return classCorrupt, errors.New("fsck: checksum mismatch")
	}

	// record.Flags is cleared implicitly: Reapply never looks at it,
	// only at the operation list — "clear the txn's flags so re-apply
	// is unconditional" (§4.6) falls out of that for free.
	if err := h.Reapply(id, path, record); err != nil {
		return classApplyError, err
	}

	return classReapplied, nil
}
