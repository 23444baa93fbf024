// Package errkind defines the small closed set of error classifications
// used across the commit and recovery engines, independent of any
// particular package so both can tag errors with the same vocabulary
// without importing one another.
package errkind

import "errors"

// Kind classifies a failure the way the design's error handling section
// does, so callers can distinguish "retry later" from "this data is
// gone" without string-matching error text.
type Kind int

const (
	// Unknown is the zero value: an error not classified by this
	// package, typically one that has simply been wrapped in transit.
	Unknown Kind = iota
	// Malformed covers bad input to the public API: a zero-length
	// operation, a negative offset, a journal record whose length
	// fields run past the mapped bytes.
	Malformed
	// Contention covers a non-blocking lock that would have blocked.
	// Only ever signaled during recovery, which skips contended
	// transaction files rather than waiting on them.
	Contention
	// Storage covers an underlying read/write/fsync/mmap error from
	// the OS.
	Storage
	// Resource covers descriptor or memory exhaustion.
	Resource
	// State covers an operation attempted on a terminated transaction
	// or a read-only handle.
	State
	// JournalAbsent covers a missing or unreadable journal directory
	// or lock file, surfaced only by fsck.
	JournalAbsent
	// Corruption covers a checksum mismatch on an otherwise
	// well-formed record.
	Corruption
)

func (k Kind) String() string {
	switch k {
	case Malformed:
		return "malformed-input"
	case Contention:
		return "contention"
	case Storage:
		return "storage"
	case Resource:
		return "resource"
	case State:
		return "state"
	case JournalAbsent:
		return "journal-absent"
	case Corruption:
		return "corruption"
	default:
		return "unknown"
	}
}

// Error pairs a classified Kind with the underlying error, letting
// callers errors.As for the kind while errors.Is/errors.Unwrap still
// reach the wrapped cause (an OS errno, or nil for a pure sentinel).
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "jio: " + e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is another *Error with the same Kind and
// no message of its own, letting callers do errors.Is(err, errkind.Of(Contention))
// as well as the more precise errors.As(err, &kindErr) form.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Err == nil && other.Kind == e.Kind
}

// New builds a sentinel *Error carrying kind and msg, with no wrapped
// cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Err: errors.New("jio: " + msg)}
}

// Wrap tags err with kind, preserving it as the Unwrap target. Wrap of
// nil is nil.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Of returns a bare marker *Error for use with errors.Is against a
// specific Kind, independent of any particular sentinel's message.
func Of(kind Kind) *Error { return &Error{Kind: kind} }
