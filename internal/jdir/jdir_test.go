package jdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDerivePath(t *testing.T) {
	require.Equal(t, filepath.FromSlash("/tmp/.data.jio"), DerivePath("/tmp/data"))
}

func TestOpenCreatesAndInitializesCounter(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data")
	jd := DerivePath(dataPath)

	m, err := Open(dataPath, "")
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, jd, m.Dir)
	require.EqualValues(t, 1, m.Counter())
}

func TestOpenDoesNotReinitializeExistingCounter(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data")

	m1, err := Open(dataPath, "")
	require.NoError(t, err)
	id, err := m1.NextID()
	require.NoError(t, err)
	require.EqualValues(t, 2, id)
	require.NoError(t, m1.Close())

	m2, err := Open(dataPath, "")
	require.NoError(t, err)
	defer m2.Close()
	require.EqualValues(t, 2, m2.Counter())
}

func TestNextIDMonotonicAndWraps(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "data"), "")
	require.NoError(t, err)
	defer m.Close()

	id, err := m.NextID()
	require.NoError(t, err)
	require.EqualValues(t, 2, id)

	require.NoError(t, m.SetCounter(^uint32(0)))
	id, err = m.NextID()
	require.NoError(t, err)
	require.EqualValues(t, 1, id)
}

func TestParseTransID(t *testing.T) {
	cases := map[string]struct {
		id uint32
		ok bool
	}{
		"lock":  {0, false},
		"":      {0, false},
		"0":     {0, false},
		"01":    {0, false},
		"7":     {7, true},
		"123":   {123, true},
		"abc":   {0, false},
		"12a":   {0, false},
	}
	for name, want := range cases {
		id, ok := ParseTransID(name)
		require.Equal(t, want.ok, ok, name)
		if ok {
			require.Equal(t, want.id, id, name)
		}
	}
}

func TestListTransactionIDsIgnoresLockAndGarbage(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "data"), "")
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, writeEmpty(m.TransPath(1)))
	require.NoError(t, writeEmpty(m.TransPath(3)))
	require.NoError(t, writeEmpty(filepath.Join(m.Dir, "notanid")))

	ids, maxID, err := m.ListTransactionIDs()
	require.NoError(t, err)
	require.ElementsMatch(t, []uint32{1, 3}, ids)
	require.EqualValues(t, 3, maxID)
}

func writeEmpty(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}
