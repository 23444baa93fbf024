package jio

import (
	"fmt"
	"os"

	"jio/internal/commit"
	"jio/internal/errkind"
	"jio/internal/jdir"
	"jio/internal/metrics"
)

// OpenFlags is the library flag bit field from §6: NoLock, NoRollback,
// Linger, ReadOnly.
type OpenFlags = commit.OpenFlags

const (
	NoLock     = commit.NoLock
	NoRollback = commit.NoRollback
	Linger     = commit.Linger
	ReadOnly   = commit.ReadOnly
)

// Options configures Open beyond the library flag bits.
type Options struct {
	// JournalPath overrides the derived journal directory.
	JournalPath string
	// Mode is the data file's creation mode; defaults to 0600.
	Mode os.FileMode
	// Diagnostics gates the "[jio] ..." log.Printf lines emitted at
	// commit/recovery decision points.
	Diagnostics bool
	// Metrics, if non-nil, receives Prometheus instrumentation for
	// every commit, rollback, and fsck classification on this handle.
	Metrics *metrics.Collector
}

// FileHandle is an open, journal-attached data file (§3).
type FileHandle struct {
	dataFile *os.File
	jd       *jdir.Manager
	h        *commit.Handle
	closed   bool
}

// Open opens path as a journal-attached data file: the data file
// itself (created if absent) plus its journal directory and lock
// file (§4.2).
func Open(path string, flags OpenFlags, opts Options) (*FileHandle, error) {
	mode := opts.Mode
	if mode == 0 {
		mode = 0600
	}
	df, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, mode)
	if err != nil {
		return nil, errkind.Wrap(errkind.Storage, fmt.Errorf("jio: open %s: %w", path, err))
	}
	jd, err := jdir.Open(path, opts.JournalPath)
	if err != nil {
		df.Close()
		return nil, errkind.Wrap(errkind.Storage, fmt.Errorf("jio: %w", err))
	}
	h := commit.NewHandle(df, jd, flags, opts.Diagnostics, opts.Metrics)
	return &FileHandle{dataFile: df, jd: jd, h: h}, nil
}

// Close releases the data file, journal directory handle, and lock
// file mmap. Invariant: all of a FileHandle's descriptors are valid
// until Close, which releases them together.
func (fh *FileHandle) Close() error {
	if fh.closed {
		return ErrClosed
	}
	fh.closed = true
	var firstErr error
	if err := fh.jd.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := fh.dataFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Jsync flushes every transaction currently lingering on this handle
// (§4.8): fsyncs the data file once, then unlinks their journal files.
func (fh *FileHandle) Jsync() error {
	if fh.closed {
		return ErrClosed
	}
	return fh.h.Jsync()
}

// MoveJournal relocates the journal directory to newPath (§4.2),
// refusing if newPath exists or a transaction is in flight. Delegates
// to the commit engine so the swap is serialized against any commit
// in flight on this handle, rather than racing on the shared
// *jdir.Manager field directly.
func (fh *FileHandle) MoveJournal(newPath string) error {
	if fh.closed {
		return ErrClosed
	}
	if err := fh.h.MoveJournal(newPath); err != nil {
		return err
	}
	fh.jd = fh.h.Jdir
	return nil
}

// NewTransaction prepares an empty transaction against this handle
// (trans_new).
func (fh *FileHandle) NewTransaction() *Transaction {
	return &Transaction{inner: fh.h.NewTransaction()}
}
