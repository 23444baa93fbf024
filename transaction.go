package jio

import "jio/internal/commit"

// Transaction is a prepared or committed unit of atomic work (§3).
// Operations are added with Add, then the transaction is terminated
// exactly once by Commit or Rollback.
type Transaction struct {
	inner *commit.Transaction
}

// Add appends one (offset, payload) operation (trans_add). The
// payload is copied; the caller may reuse its buffer once Add
// returns.
func (t *Transaction) Add(payload []byte, offset int64) error {
	return t.inner.Add(payload, offset)
}

// Commit runs the eight-step commit protocol (§4.5, trans_commit).
func (t *Transaction) Commit() error {
	return t.inner.Commit()
}

// Rollback reverses a previously committed transaction (trans_rollback).
func (t *Transaction) Rollback() error {
	return t.inner.Rollback()
}

// Free releases the transaction's resources (trans_free). A no-op in
// this implementation: nothing but Go-managed memory is held.
func (t *Transaction) Free() {
	t.inner.Free()
}

// ID returns the transaction's assigned ID, or 0 before a successful
// Commit.
func (t *Transaction) ID() uint32 {
	return t.inner.ID()
}
