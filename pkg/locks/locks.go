// Package locks serializes work keyed by workflow id. Concurrent runs of the
// same workflow go through a lock so their metric updates cannot interleave.
package locks

import (
	"context"
	"sync"
)

// ReleaseFunc releases a held lock. Safe to call exactly once.
type ReleaseFunc func()

// Locker acquires an exclusive lock for a key, blocking until the lock is
// available or the context is cancelled.
type Locker interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// MemoryLocker is an in-process keyed lock. It is the default when the engine
// runs as a single instance.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		slots: make(map[string]chan struct{}),
	}
}

func (l *MemoryLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}

	return slot
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	slot := l.slot(key)

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
