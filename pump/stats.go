package pump

import (
	"fmt"
	"sync/atomic"
)

// CycleResult is the outcome of one pump cycle.
type CycleResult int

const (
	// Presented means a new frame was blitted and reported to the host.
	Presented CycleResult = iota

	// Duped means no new frame existed and the host was told to reuse the
	// previous one.
	Duped

	// NotReady means a new frame existed but the shared surface could not
	// be read. The host was told to reuse the previous frame and the frame
	// stays pending.
	NotReady
)

func (r CycleResult) String() string {
	switch r {
	case Presented:
		return "presented"
	case Duped:
		return "duped"
	case NotReady:
		return "not ready"
	default:
		return "unknown"
	}
}

// Stats counts pump activity. All fields are updated atomically.
type Stats struct {
	cycles         atomic.Uint64
	presented      atomic.Uint64
	duped          atomic.Uint64
	notReady       atomic.Uint64
	dropped        atomic.Uint64
	fenceWaits     atomic.Uint64
	fenceTimeouts  atomic.Uint64
	audioFrames    atomic.Uint64
	audioUnderruns atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Cycles    uint64
	Presented uint64
	Duped     uint64
	NotReady  uint64

	// Dropped counts producer frames superseded before they were
	// presented.
	Dropped uint64

	FenceWaits    uint64
	FenceTimeouts uint64

	AudioFrames uint64

	// AudioUnderruns counts cycles that delivered no audio while playing.
	AudioUnderruns uint64
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Cycles:         s.cycles.Load(),
		Presented:      s.presented.Load(),
		Duped:          s.duped.Load(),
		NotReady:       s.notReady.Load(),
		Dropped:        s.dropped.Load(),
		FenceWaits:     s.fenceWaits.Load(),
		FenceTimeouts:  s.fenceTimeouts.Load(),
		AudioFrames:    s.audioFrames.Load(),
		AudioUnderruns: s.audioUnderruns.Load(),
	}
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("cycles %d, presented %d, duped %d, not ready %d, dropped %d, fence waits %d (%d timed out), audio frames %d, underruns %d",
		s.Cycles, s.Presented, s.Duped, s.NotReady, s.Dropped,
		s.FenceWaits, s.FenceTimeouts, s.AudioFrames, s.AudioUnderruns)
}
