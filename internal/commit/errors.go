package commit

import (
	"errors"

	"jio/internal/errkind"
)

var (
	// ErrNoOperations rejects a commit of a transaction with no
	// operations (§8 boundary behavior).
	ErrNoOperations = errkind.New(errkind.Malformed, "transaction has no operations")
	// ErrEmptyPayload rejects trans_add with a zero-length buffer.
	ErrEmptyPayload = errkind.New(errkind.Malformed, "operation payload must not be empty")
	// ErrNegativeOffset rejects trans_add with a negative offset.
	ErrNegativeOffset = errkind.New(errkind.Malformed, "operation offset must not be negative")
	// ErrTerminated rejects add/commit on a transaction that already
	// committed or rolled back, and rollback on one already rolled back.
	ErrTerminated = errkind.New(errkind.State, "transaction already committed or rolled back")
	// ErrReadOnly rejects trans_commit on a read-only handle.
	ErrReadOnly = errkind.New(errkind.State, "handle is read-only")
	// ErrRollbackForbidden rejects trans_rollback when the handle was
	// opened with the no-rollback flag.
	ErrRollbackForbidden = errkind.New(errkind.State, "handle forbids rollback")
	// ErrNotCommitted rejects rollback of a transaction that was never
	// successfully committed.
	ErrNotCommitted = errkind.New(errkind.State, "transaction was never committed")
	// ErrJournalTooLarge rejects trans_add once the transaction's
	// cumulative on-disk record size would exceed the platform's
	// ssize_t maximum (spec.md's numeric semantics: enforced at add
	// time, not at commit).
	ErrJournalTooLarge = errkind.New(errkind.Resource, "cumulative journal record size exceeds platform maximum")
)

// ErrSimulatedCrash is returned by Commit when it hits a test-only
// crash checkpoint. It never escapes normal operation: the field that
// triggers it is unexported and unset outside this package's own
// tests.
var ErrSimulatedCrash = errors.New("commit: simulated crash checkpoint reached")
