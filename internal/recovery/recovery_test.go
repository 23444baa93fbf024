package recovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jio/internal/codec"
	"jio/internal/commit"
	"jio/internal/jdir"
)

func setup(t *testing.T, initial []byte) (dataPath string) {
	t.Helper()
	dir := t.TempDir()
	dataPath = filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(dataPath, initial, 0600))
	return dataPath
}

func readAll(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

// commitAndCrash drives a single-op commit through the commit engine
// and stops right after the journal fsync, reproducing scenario 2: a
// durable, checksum-valid journal record with the data file untouched.
func commitAndCrash(t *testing.T, dataPath string, payload []byte, offset int64) {
	t.Helper()
	df, err := os.OpenFile(dataPath, os.O_RDWR, 0600)
	require.NoError(t, err)
	defer df.Close()

	jd, err := jdir.Open(dataPath, "")
	require.NoError(t, err)
	defer jd.Close()

	h := commit.NewHandle(df, jd, 0, false, nil)
	txn := h.NewTransaction()
	require.NoError(t, txn.Add(payload, offset))

	err = commit.CrashAfterJournalFsync(txn)
	require.ErrorIs(t, err, commit.ErrSimulatedCrash)
}

func TestFsckReappliesACrashedCommit(t *testing.T) {
	dataPath := setup(t, []byte("hello"))
	commitAndCrash(t, dataPath, []byte("WORLD"), 0)
	assert.Equal(t, "hello", string(readAll(t, dataPath)))

	res, err := Fsck(dataPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 1, Reapplied: 1}, res)
	assert.Equal(t, "WORLD", string(readAll(t, dataPath)))
}

func TestFsckIsIdempotent(t *testing.T) {
	dataPath := setup(t, []byte("hello"))
	commitAndCrash(t, dataPath, []byte("WORLD"), 0)

	_, err := Fsck(dataPath, Options{})
	require.NoError(t, err)

	res, err := Fsck(dataPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Reapplied)
	assert.Equal(t, 0, res.Total)
}

func TestFsckClassifiesCorruptChecksum(t *testing.T) {
	dataPath := setup(t, []byte("hello"))
	commitAndCrash(t, dataPath, []byte("WORLD"), 0)

	jd, err := jdir.Open(dataPath, "")
	require.NoError(t, err)
	ids, _, err := jd.ListTransactionIDs()
	require.NoError(t, err)
	require.Len(t, ids, 1)
	path := jd.TransPath(ids[0])
	require.NoError(t, jd.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[0] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0600))

	res, err := Fsck(dataPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 1, Corrupt: 1}, res)
	assert.Equal(t, "hello", string(readAll(t, dataPath)), "a corrupt journal record must not be applied")
}

func TestFsckClassifiesBrokenTruncatedRecord(t *testing.T) {
	dataPath := setup(t, []byte("hello"))
	commitAndCrash(t, dataPath, []byte("WORLD"), 0)

	jd, err := jdir.Open(dataPath, "")
	require.NoError(t, err)
	ids, _, err := jd.ListTransactionIDs()
	require.NoError(t, err)
	path := jd.TransPath(ids[0])
	require.NoError(t, jd.Close())

	require.NoError(t, os.Truncate(path, codec.HeaderSize))

	res, err := Fsck(dataPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 1, Broken: 1}, res)
}

func TestFsckRewritesCounterToMaxID(t *testing.T) {
	dataPath := setup(t, []byte("hello"))
	commitAndCrash(t, dataPath, []byte("WORLD"), 0)
	commitAndCrash(t, dataPath, []byte("!"), 10)

	_, err := Fsck(dataPath, Options{})
	require.NoError(t, err)

	jd, err := jdir.Open(dataPath, "")
	require.NoError(t, err)
	defer jd.Close()
	assert.EqualValues(t, 2, jd.Counter())
}

func TestFsckCleanupIsIdempotent(t *testing.T) {
	dataPath := setup(t, nil)

	df, err := os.OpenFile(dataPath, os.O_RDWR, 0600)
	require.NoError(t, err)
	jd, err := jdir.Open(dataPath, "")
	require.NoError(t, err)
	h := commit.NewHandle(df, jd, 0, false, nil)
	txn := h.NewTransaction()
	require.NoError(t, txn.Add([]byte("ABCDE"), 0))
	require.NoError(t, txn.Commit())
	require.NoError(t, jd.Close())
	require.NoError(t, df.Close())

	require.NoError(t, Cleanup(dataPath, ""))
	assert.NoDirExists(t, jdir.DerivePath(dataPath))
	require.NoError(t, Cleanup(dataPath, ""))
}
