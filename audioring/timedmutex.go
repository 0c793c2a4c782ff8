package audioring

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// timedMutex is a mutex whose acquisition can give up after a deadline.
type timedMutex struct {
	sem *semaphore.Weighted
}

func newTimedMutex() timedMutex {
	return timedMutex{sem: semaphore.NewWeighted(1)}
}

func (m timedMutex) Lock() {
	// never fails with a background context
	_ = m.sem.Acquire(context.Background(), 1)
}

func (m timedMutex) Unlock() {
	m.sem.Release(1)
}

// TryLockFor acquires the lock if it becomes free within d.
func (m timedMutex) TryLockFor(d time.Duration) bool {
	if m.sem.TryAcquire(1) {
		return true
	}
	if d <= 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return m.sem.Acquire(ctx, 1) == nil
}
