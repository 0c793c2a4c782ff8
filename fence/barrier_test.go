package fence

import (
	"sync"
	"testing"
	"time"
)

type fakeSyncer struct {
	mu      sync.Mutex
	next    Sync
	live    map[Sync]bool
	deleted map[Sync]int
	flushes int
	waits   []Sync
	result  WaitResult
	budget  time.Duration
}

func newFakeSyncer() *fakeSyncer {
	return &fakeSyncer{
		live:    make(map[Sync]bool),
		deleted: make(map[Sync]int),
		result:  ConditionSatisfied,
	}
}

func (f *fakeSyncer) FenceSync() Sync {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.live[f.next] = true
	return f.next
}

func (f *fakeSyncer) Flush() {
	f.mu.Lock()
	f.flushes++
	f.mu.Unlock()
}

func (f *fakeSyncer) ClientWaitSync(s Sync, timeout time.Duration) WaitResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = append(f.waits, s)
	f.budget = timeout
	return f.result
}

func (f *fakeSyncer) DeleteSync(s Sync) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, s)
	f.deleted[s]++
}

func TestWaitWithoutSignal(t *testing.T) {
	f := newFakeSyncer()
	b := NewBarrier(f)

	if got := b.Wait(DefaultBudget); got != NoFence {
		t.Errorf("Wait() = %v, want %v", got, NoFence)
	}
	if len(f.waits) != 0 {
		t.Errorf("ClientWaitSync calls = %d, want 0", len(f.waits))
	}
}

func TestSignalsThenOneWait(t *testing.T) {
	for _, n := range []int{1, 2, 5, 100} {
		f := newFakeSyncer()
		b := NewBarrier(f)

		for range n {
			b.Signal()
		}
		if f.flushes != n {
			t.Errorf("n=%d: flushes = %d, want %d", n, f.flushes, n)
		}

		if got := b.Wait(DefaultBudget); got != ConditionSatisfied {
			t.Errorf("n=%d: Wait() = %v, want %v", n, got, ConditionSatisfied)
		}
		if len(f.waits) != 1 || f.waits[0] != Sync(n) {
			t.Errorf("n=%d: waited on %v, want only the newest fence %d", n, f.waits, n)
		}
		if len(f.live) != 0 {
			t.Errorf("n=%d: leaked fences = %d, want 0", n, len(f.live))
		}
		for s, c := range f.deleted {
			if c != 1 {
				t.Errorf("n=%d: fence %d deleted %d times, want 1", n, s, c)
			}
		}
		if len(f.deleted) != n {
			t.Errorf("n=%d: deleted fences = %d, want %d", n, len(f.deleted), n)
		}
		if b.pending() {
			t.Errorf("n=%d: pending() = true after Wait", n)
		}
	}
}

func TestTimeoutStillDeletes(t *testing.T) {
	f := newFakeSyncer()
	f.result = TimeoutExpired
	b := NewBarrier(f)

	b.Signal()
	got := b.Wait(500 * time.Microsecond)
	if got != TimeoutExpired {
		t.Fatalf("Wait() = %v, want %v", got, TimeoutExpired)
	}
	if got.Signaled() {
		t.Error("TimeoutExpired reported as signaled")
	}
	if f.budget != 500*time.Microsecond {
		t.Errorf("budget = %v, want 500µs", f.budget)
	}
	if len(f.live) != 0 {
		t.Errorf("leaked fences = %d, want 0", len(f.live))
	}
	if got := b.Wait(DefaultBudget); got != NoFence {
		t.Errorf("second Wait() = %v, want %v", got, NoFence)
	}
}

func TestDiscard(t *testing.T) {
	f := newFakeSyncer()
	b := NewBarrier(f)
	b.Signal()
	b.Discard()
	b.Discard()

	if len(f.live) != 0 || f.deleted[1] != 1 {
		t.Errorf("live=%d deleted=%v, want 0 live and one delete", len(f.live), f.deleted)
	}
}

func TestConcurrentSignalAndWait(t *testing.T) {
	f := newFakeSyncer()
	b := NewBarrier(f)

	const signals = 2000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range signals {
			b.Signal()
		}
	}()

	stop := false
	for !stop {
		select {
		case <-done:
			stop = true
		default:
		}
		b.Wait(0)
	}
	b.Wait(0)

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.live) != 0 {
		t.Errorf("leaked fences = %d, want 0", len(f.live))
	}
	if len(f.deleted) != signals {
		t.Errorf("deleted fences = %d, want %d", len(f.deleted), signals)
	}
	for s, c := range f.deleted {
		if c != 1 {
			t.Fatalf("fence %d deleted %d times, want 1", s, c)
		}
	}
}
