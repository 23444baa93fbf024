package jio

import (
	"jio/internal/commit"
	"jio/internal/errkind"
)

// Kind classifies a failure per the design's error handling section:
// malformed input, lock contention, a storage error, resource
// exhaustion, an operation on terminated/read-only state, a missing
// journal, or a checksum mismatch.
type Kind = errkind.Kind

const (
	KindMalformed     = errkind.Malformed
	KindContention    = errkind.Contention
	KindStorage       = errkind.Storage
	KindResource      = errkind.Resource
	KindState         = errkind.State
	KindJournalAbsent = errkind.JournalAbsent
	KindCorruption    = errkind.Corruption
)

// Error pairs a Kind with the underlying cause. Use errors.As to
// recover the Kind and errors.Is/errors.Unwrap to reach the wrapped
// OS error, if any.
type Error = errkind.Error

var (
	// ErrNoOperations rejects committing a transaction with no
	// operations.
	ErrNoOperations = commit.ErrNoOperations
	// ErrEmptyPayload rejects adding a zero-length operation.
	ErrEmptyPayload = commit.ErrEmptyPayload
	// ErrNegativeOffset rejects adding an operation at a negative
	// offset.
	ErrNegativeOffset = commit.ErrNegativeOffset
	// ErrTerminated rejects add/commit on a transaction that already
	// committed or rolled back, and rollback on one already rolled back.
	ErrTerminated = commit.ErrTerminated
	// ErrReadOnly rejects commit on a handle opened with ReadOnly.
	ErrReadOnly = commit.ErrReadOnly
	// ErrRollbackForbidden rejects rollback on a handle opened with
	// NoRollback.
	ErrRollbackForbidden = commit.ErrRollbackForbidden
	// ErrNotCommitted rejects rollback of a transaction that was never
	// successfully committed.
	ErrNotCommitted = commit.ErrNotCommitted
	// ErrClosed rejects Close, Jsync and MoveJournal on a FileHandle
	// that is already closed.
	ErrClosed = errkind.New(errkind.State, "handle is closed")
)
