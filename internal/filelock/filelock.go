// Package filelock wraps POSIX advisory byte-range locking (fcntl
// F_SETLK/F_SETLKW) behind the three operations the journaling
// protocol needs: acquire blocking, acquire non-blocking, release.
//
// Every lock is anchored at an absolute offset from the start of the
// file, per the spec's "always anchored at absolute offsets"
// requirement. A length of 0 means "to the end of the file", the
// standard POSIX convention also honored by fcntl(2). The package
// never takes shared/read locks — this library only ever needs
// mutual exclusion.
package filelock

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by AcquireNonblocking when the region is
// already locked by another process. Callers (principally the
// recovery engine) use this to distinguish contention from any other
// failure and skip the resource instead of failing outright.
var ErrWouldBlock = errors.New("filelock: region is locked")

// Acquire takes an exclusive lock on [offset, offset+length) of fd,
// blocking until it is available. length == 0 means "to EOF".
func Acquire(fd int, offset, length int64) error {
	return lock(fd, offset, length, unix.F_SETLKW)
}

// AcquireNonblocking attempts the same lock as Acquire but returns
// ErrWouldBlock immediately instead of blocking if the region is
// currently held by someone else.
func AcquireNonblocking(fd int, offset, length int64) error {
	err := lock(fd, offset, length, unix.F_SETLK)
	if err != nil && isWouldBlock(err) {
		return ErrWouldBlock
	}
	return err
}

// Release drops the lock on [offset, offset+length) of fd. Releasing
// a region that isn't locked by this process is a no-op, matching
// fcntl(2) semantics.
func Release(fd int, offset, length int64) error {
	return lock(fd, offset, length, unix.F_SETLK, unix.F_UNLCK)
}

func lock(fd int, offset, length int64, cmd int, typ ...int16) error {
	lt := int16(unix.F_WRLCK)
	if len(typ) > 0 {
		lt = typ[0]
	}
	flk := unix.Flock_t{
		Type:   lt,
		Whence: int16(unix.SEEK_SET),
		Start:  offset,
		Len:    length,
	}
	if err := unix.FcntlFlock(uintptr(fd), cmd, &flk); err != nil {
		return fmt.Errorf("filelock: fcntl(start=%d, len=%d): %w", offset, length, err)
	}
	return nil
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EACCES) || errors.Is(err, unix.EAGAIN)
}
