package filelock

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "filelock")
	require.NoError(t, err)
	require.NoError(t, f.Truncate(4096))
	t.Cleanup(func() { f.Close() })
	return f
}

func TestAcquireReleaseSameProcess(t *testing.T) {
	f := tempFile(t)
	require.NoError(t, Acquire(int(f.Fd()), 0, 16))
	require.NoError(t, Release(int(f.Fd()), 0, 16))
}

func TestAcquireNonblockingSameProcessDoesNotContend(t *testing.T) {
	// fcntl locks are per-process, not per-descriptor, so real
	// contention cannot be produced from within one process. This test
	// locks the whole file on one fd and confirms that a non-blocking
	// lock on an overlapping region from the SAME fd (which just
	// updates the existing lock) does not report ErrWouldBlock, and
	// that the whole-file release then succeeds.
	f := tempFile(t)
	require.NoError(t, Acquire(int(f.Fd()), 0, 0))
	require.NoError(t, AcquireNonblocking(int(f.Fd()), 10, 10))
	require.NoError(t, Release(int(f.Fd()), 0, 0))
}

func TestZeroLengthMeansToEOF(t *testing.T) {
	f := tempFile(t)
	require.NoError(t, Acquire(int(f.Fd()), 100, 0))
	require.NoError(t, Release(int(f.Fd()), 100, 0))
}
