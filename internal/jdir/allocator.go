package jdir

import "jio/internal/filelock"

// NextID reserves a unique, monotonically increasing 32-bit
// transaction ID (§4.3): lock the whole lock file, read-increment-
// wrap the shared counter, write it back through the mmap and msync,
// unlock.
//
// IDs are unique across concurrent processes sharing this journal
// directory because the increment happens under an exclusive
// whole-file lock; after a wrap to 0 the allocator skips straight to
// 1, and any resulting collisions with IDs still in use are resolved
// by the recovery engine's in-progress-lock tie-breaker, not here.
func (m *Manager) NextID() (uint32, error) {
	if err := filelock.Acquire(m.LockFd(), 0, 0); err != nil {
		return 0, err
	}
	defer filelock.Release(m.LockFd(), 0, 0)

	cur := m.Counter()
	id := cur + 1
	if id == 0 {
		id = 1
	}
	if err := m.SetCounter(id); err != nil {
		return 0, err
	}
	return id, nil
}
