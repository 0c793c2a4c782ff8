// Package fence orders producer GPU writes before consumer reads across two
// graphics contexts.
//
// The producer signals after submitting a frame; the consumer waits, with a
// small budget, before it reads the shared surface. Only the newest fence
// is kept. A wait that runs out of budget is not an error: the consumer
// presents whatever is in the surface.
package fence

import (
	"sync/atomic"
	"time"
)

// Sync is an opaque GPU sync object. Zero is never a valid sync.
type Sync uintptr

// WaitResult is the outcome of a client-side wait.
type WaitResult int

const (
	NoFence WaitResult = iota
	AlreadySignaled
	ConditionSatisfied
	TimeoutExpired
	WaitFailed
)

func (r WaitResult) String() string {
	switch r {
	case NoFence:
		return "no fence"
	case AlreadySignaled:
		return "already signaled"
	case ConditionSatisfied:
		return "condition satisfied"
	case TimeoutExpired:
		return "timeout expired"
	case WaitFailed:
		return "wait failed"
	default:
		return "unknown"
	}
}

// Signaled reports whether the producer's work is known to be complete.
func (r WaitResult) Signaled() bool {
	return r == AlreadySignaled || r == ConditionSatisfied
}

// Syncer is the sync object API. FenceSync and Flush run on the producer
// context; ClientWaitSync runs on the consumer context. DeleteSync may run
// on either.
type Syncer interface {
	FenceSync() Sync
	Flush()
	ClientWaitSync(s Sync, timeout time.Duration) WaitResult
	DeleteSync(s Sync)
}

// DefaultBudget is the consumer wait budget.
const DefaultBudget = time.Millisecond

type token struct {
	sync Sync
	id   uint64
}

// Barrier tracks at most one outstanding fence.
type Barrier struct {
	syncer      Syncer
	outstanding atomic.Pointer[token]
	nextID      atomic.Uint64
}

// NewBarrier returns a barrier using s.
func NewBarrier(s Syncer) *Barrier {
	return &Barrier{syncer: s}
}

// Signal inserts a fence after the producer's submitted commands and flushes
// them. Any older outstanding fence is deleted. It never blocks on the GPU.
func (b *Barrier) Signal() uint64 {
	s := b.syncer.FenceSync()
	b.syncer.Flush()
	if s == 0 {
		return 0
	}

	t := &token{sync: s, id: b.nextID.Add(1)}
	if old := b.outstanding.Swap(t); old != nil {
		b.syncer.DeleteSync(old.sync)
	}
	return t.id
}

// Wait takes the outstanding fence, if any, and waits for it for at most
// budget. The fence is deleted whatever the outcome.
func (b *Barrier) Wait(budget time.Duration) WaitResult {
	t := b.outstanding.Swap(nil)
	if t == nil {
		return NoFence
	}
	r := b.syncer.ClientWaitSync(t.sync, budget)
	b.syncer.DeleteSync(t.sync)
	return r
}

// pending reports whether a fence is outstanding.
func (b *Barrier) pending() bool {
	return b.outstanding.Load() != nil
}

// Discard deletes the outstanding fence without waiting.
func (b *Barrier) Discard() {
	if t := b.outstanding.Swap(nil); t != nil {
		b.syncer.DeleteSync(t.sync)
	}
}
