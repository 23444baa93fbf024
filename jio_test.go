package jio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCommitCloseRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")

	fh, err := Open(path, 0, Options{})
	require.NoError(t, err)

	txn := fh.NewTransaction()
	require.NoError(t, txn.Add([]byte("ABCDE"), 0))
	require.NoError(t, txn.Commit())

	require.NoError(t, fh.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ABCDE", string(b))
}

func TestCloseIsNotIdempotent(t *testing.T) {
	dir := t.TempDir()
	fh, err := Open(filepath.Join(dir, "data"), 0, Options{})
	require.NoError(t, err)
	require.NoError(t, fh.Close())
	assert.ErrorIs(t, fh.Close(), ErrClosed)
}

func TestRollbackEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0600))

	fh, err := Open(path, 0, Options{})
	require.NoError(t, err)
	defer fh.Close()

	txn := fh.NewTransaction()
	require.NoError(t, txn.Add([]byte("XXX"), 2))
	require.NoError(t, txn.Commit())

	b, _ := os.ReadFile(path)
	assert.Equal(t, "01XXX56789", string(b))

	require.NoError(t, txn.Rollback())
	b, _ = os.ReadFile(path)
	assert.Equal(t, "0123456789", string(b))
}

func TestMoveJournalThenCommit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")

	fh, err := Open(path, 0, Options{})
	require.NoError(t, err)
	defer fh.Close()

	newJournal := filepath.Join(dir, "elsewhere-journal")
	require.NoError(t, fh.MoveJournal(newJournal))

	txn := fh.NewTransaction()
	require.NoError(t, txn.Add([]byte("ABCDE"), 0))
	require.NoError(t, txn.Commit())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ABCDE", string(b))

	_, err = os.Stat(newJournal)
	require.NoError(t, err)
}

func TestFsckCleanupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")

	fh, err := Open(path, 0, Options{})
	require.NoError(t, err)
	txn := fh.NewTransaction()
	require.NoError(t, txn.Add([]byte("ABCDE"), 0))
	require.NoError(t, txn.Commit())
	require.NoError(t, fh.Close())

	require.NoError(t, FsckCleanup(path, ""))
	require.NoError(t, FsckCleanup(path, ""))
}
