// Package jdir manages the hidden journal directory that sits beside
// a data file: deriving its path, creating and validating it, holding
// the directory handle used for durable fsync of renames/unlinks, and
// owning the lock file that carries the shared monotonic transaction
// counter (§4.2, §4.3 of the design).
package jdir

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"jio/internal/filelock"
)

const (
	lockFileName = "lock"
	counterSize  = 4
)

// DerivePath returns the default journal directory for a data file:
// a hidden sibling directory, "<dirname>/.<basename>.jio".
func DerivePath(dataPath string) string {
	dir := filepath.Dir(dataPath)
	base := filepath.Base(dataPath)
	return filepath.Join(dir, "."+base+".jio")
}

// Manager owns the open directory handle and lock-file mmap for one
// journal directory. It is not safe for concurrent NextID/SetCounter
// calls from multiple goroutines within the same process without
// external synchronization (the commit engine provides the per-handle
// mutex the spec calls for).
type Manager struct {
	Dir      string
	dirFile  *os.File
	lockFile *os.File
	counter  []byte // mmap of the lock file's first 4 bytes
}

// Open derives (or accepts) the journal directory path, creates it if
// absent, verifies it is a directory, and opens/initializes the lock
// file. If journalPath is empty, the path is derived from dataPath.
//
// Initialization of the counter to 1 happens only when the lock file
// is observed empty immediately after opening — skipping it otherwise
// is what prevents a race between concurrent first-openers (the spec's
// explicit ordering requirement).
func Open(dataPath, journalPath string) (*Manager, error) {
	return open(dataPath, journalPath, true)
}

// OpenExisting is Open without the implicit create: fsck uses it
// because fabricating a journal directory that was never there is
// not recovery, it's data loss waiting to happen. Returns an error
// wrapping os.ErrNotExist (checkable with errors.Is) if the directory
// or its lock file is absent.
func OpenExisting(dataPath, journalPath string) (*Manager, error) {
	return open(dataPath, journalPath, false)
}

func open(dataPath, journalPath string, create bool) (*Manager, error) {
	dir := journalPath
	if dir == "" {
		dir = DerivePath(dataPath)
	}

	if create {
		if err := os.Mkdir(dir, 0700); err != nil && !os.IsExist(err) {
			return nil, fmt.Errorf("jdir: create journal directory %s: %w", dir, err)
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("jdir: stat journal directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("jdir: %s exists and is not a directory", dir)
	}

	dirFile, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("jdir: open journal directory handle: %w", err)
	}

	lockPath := filepath.Join(dir, lockFileName)
	lockFlags := os.O_RDWR
	if create {
		lockFlags |= os.O_CREATE
	}
	lockFile, err := os.OpenFile(lockPath, lockFlags, 0600)
	if err != nil {
		dirFile.Close()
		return nil, fmt.Errorf("jdir: open lock file: %w", err)
	}

	st, err := lockFile.Stat()
	if err != nil {
		lockFile.Close()
		dirFile.Close()
		return nil, fmt.Errorf("jdir: stat lock file: %w", err)
	}
	isNew := st.Size() == 0
	if st.Size() < counterSize {
		if err := lockFile.Truncate(counterSize); err != nil {
			lockFile.Close()
			dirFile.Close()
			return nil, fmt.Errorf("jdir: grow lock file: %w", err)
		}
	}

	data, err := unix.Mmap(int(lockFile.Fd()), 0, counterSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		lockFile.Close()
		dirFile.Close()
		return nil, fmt.Errorf("jdir: mmap lock file: %w", err)
	}

	m := &Manager{Dir: dir, dirFile: dirFile, lockFile: lockFile, counter: data}

	if isNew {
		if err := filelock.Acquire(int(lockFile.Fd()), 0, 0); err != nil {
			m.Close()
			return nil, fmt.Errorf("jdir: lock new lock file for init: %w", err)
		}
		binary.LittleEndian.PutUint32(m.counter, 1)
		syncErr := unix.Msync(m.counter, unix.MS_SYNC)
		_ = filelock.Release(int(lockFile.Fd()), 0, 0)
		if syncErr != nil {
			m.Close()
			return nil, fmt.Errorf("jdir: msync lock file init: %w", syncErr)
		}
	}

	return m, nil
}

// Close releases the mmap and both file handles. It is safe to call
// at most once.
func (m *Manager) Close() error {
	var firstErr error
	if m.counter != nil {
		if err := unix.Munmap(m.counter); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("jdir: munmap: %w", err)
		}
		m.counter = nil
	}
	if m.lockFile != nil {
		if err := m.lockFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("jdir: close lock file: %w", err)
		}
		m.lockFile = nil
	}
	if m.dirFile != nil {
		if err := m.dirFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("jdir: close directory handle: %w", err)
		}
		m.dirFile = nil
	}
	return firstErr
}

// LockFd returns the lock file's descriptor, for callers (the ID
// allocator) that need to take the whole-file lock directly.
func (m *Manager) LockFd() int { return int(m.lockFile.Fd()) }

// Counter returns the current value of the shared transaction counter.
// Callers must hold the lock-file lock.
func (m *Manager) Counter() uint32 {
	return binary.LittleEndian.Uint32(m.counter)
}

// SetCounter overwrites the shared counter. Callers must hold the
// lock-file lock. Used by recovery to rewrite the counter to the
// highest surviving transaction ID (§4.6 step 3).
func (m *Manager) SetCounter(v uint32) error {
	binary.LittleEndian.PutUint32(m.counter, v)
	if err := unix.Msync(m.counter, unix.MS_SYNC); err != nil {
		return fmt.Errorf("jdir: msync counter: %w", err)
	}
	return nil
}

// FsyncDir durably persists renames/unlinks performed within the
// journal directory. Critical per §4.5 step 6/7 — without it a
// transaction record's visibility after a crash is not guaranteed.
func (m *Manager) FsyncDir() error {
	if err := m.dirFile.Sync(); err != nil {
		return fmt.Errorf("jdir: fsync journal directory: %w", err)
	}
	return nil
}

// TransPath returns the path of the transaction file for id within
// this journal directory.
func (m *Manager) TransPath(id uint32) string {
	return filepath.Join(m.Dir, strconv.FormatUint(uint64(id), 10))
}

// ParseTransID reports whether name is a valid transaction filename
// ("[1-9][0-9]*") and, if so, its numeric ID. The literal name "lock"
// and anything else that doesn't parse as a positive decimal integer
// is ignored by both commit and recovery, per the on-disk invariant in
// §3.
func ParseTransID(name string) (uint32, bool) {
	if name == lockFileName || name == "" {
		return 0, false
	}
	if name[0] < '1' || name[0] > '9' {
		return 0, false
	}
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// ListTransactionIDs scans the journal directory and returns every
// valid transaction ID present, along with the highest one seen (0 if
// none).
func (m *Manager) ListTransactionIDs() (ids []uint32, maxID uint32, err error) {
	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		return nil, 0, fmt.Errorf("jdir: read journal directory: %w", err)
	}
	for _, e := range entries {
		id, ok := ParseTransID(e.Name())
		if !ok {
			continue
		}
		ids = append(ids, id)
		if id > maxID {
			maxID = id
		}
	}
	return ids, maxID, nil
}

// AnyInFlight reports whether any transaction file in the directory
// is currently held by a non-blocking whole-file lock belonging to
// another process, i.e. a commit is mid-flight. Used by MoveJournal
// (and by Cleanup's caller contract) to refuse to act while work is
// outstanding.
func (m *Manager) AnyInFlight() (bool, error) {
	ids, _, err := m.ListTransactionIDs()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		path := m.TransPath(id)
		f, err := os.OpenFile(path, os.O_RDWR, 0600)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return false, fmt.Errorf("jdir: open %s: %w", path, err)
		}
		lockErr := filelock.AcquireNonblocking(int(f.Fd()), 0, 0)
		if lockErr == filelock.ErrWouldBlock {
			f.Close()
			return true, nil
		}
		if lockErr == nil {
			_ = filelock.Release(int(f.Fd()), 0, 0)
		}
		f.Close()
		if lockErr != nil && lockErr != filelock.ErrWouldBlock {
			return false, lockErr
		}
	}
	return false, nil
}

// MoveJournal relocates the journal directory to newPath, refusing if
// newPath already exists or if any transaction is currently in
// flight. Callers are responsible for holding the per-handle mutex
// that serializes this against concurrent commits (§4.2).
func MoveJournal(m *Manager, newPath string) (*Manager, error) {
	if _, err := os.Stat(newPath); err == nil {
		return nil, fmt.Errorf("jdir: move journal: %s already exists", newPath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("jdir: move journal: stat %s: %w", newPath, err)
	}

	busy, err := m.AnyInFlight()
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, fmt.Errorf("jdir: move journal: %w", filelock.ErrWouldBlock)
	}

	oldDir := m.Dir
	if err := m.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(oldDir, newPath); err != nil {
		return nil, fmt.Errorf("jdir: rename %s -> %s: %w", oldDir, newPath, err)
	}
	return Open("", newPath)
}

// IsLockName reports whether name is the reserved lock-file name.
func IsLockName(name string) bool { return name == lockFileName }
