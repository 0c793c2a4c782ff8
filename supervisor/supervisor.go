// Package supervisor pauses a free-running machine when the host stops
// pumping and resumes it when pumping restarts.
package supervisor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	emucore "github.com/user-none/hwbridge/api"
	"github.com/user-none/hwbridge/logger"
)

// ErrThresholds is returned for a configuration without hysteresis.
var ErrThresholds = errors.New("resume threshold must be below pause threshold")

// Config holds the supervisor timings.
type Config struct {
	// PauseThreshold is the pump gap after which the machine is paused.
	PauseThreshold time.Duration

	// ResumeThreshold is the pump gap below which a machine paused by the
	// supervisor is resumed. It must be smaller than PauseThreshold.
	ResumeThreshold time.Duration

	PollInterval time.Duration
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		PauseThreshold:  100 * time.Millisecond,
		ResumeThreshold: 40 * time.Millisecond,
		PollInterval:    10 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.PauseThreshold <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("supervisor: thresholds and poll interval must be positive: %+v", c)
	}
	if c.ResumeThreshold <= 0 || c.ResumeThreshold >= c.PauseThreshold {
		return fmt.Errorf("supervisor: %w (pause %v, resume %v)", ErrThresholds, c.PauseThreshold, c.ResumeThreshold)
	}
	return nil
}

// Supervisor watches the gap between pump calls.
type Supervisor struct {
	cfg     Config
	machine emucore.MachineControl

	// monotonic base for timestamps
	epoch time.Time
	now   func() time.Time

	// nanoseconds since epoch of the last pump, plus one. Zero means no
	// pump has been seen.
	lastPump atomic.Int64
	pausedBy atomic.Bool

	pauses  atomic.Uint64
	resumes atomic.Uint64

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

// New returns a stopped supervisor for machine.
func New(cfg Config, machine emucore.MachineControl) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Supervisor{
		cfg:     cfg,
		machine: machine,
		epoch:   time.Now(),
		now:     time.Now,
	}, nil
}

// Touch records a pump. The pump calls it at the start of every cycle.
func (s *Supervisor) Touch() {
	s.lastPump.Store(int64(s.now().Sub(s.epoch)) + 1)
}

// PausedBySupervisor reports whether the machine is currently held paused
// by the supervisor.
func (s *Supervisor) PausedBySupervisor() bool {
	return s.pausedBy.Load()
}

// Counts returns how many times the supervisor paused and resumed the
// machine.
func (s *Supervisor) Counts() (pauses, resumes uint64) {
	return s.pauses.Load(), s.resumes.Load()
}

// Start resets the pump tracker and starts polling. Starting a running
// supervisor does nothing.
func (s *Supervisor) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}

	s.lastPump.Store(0)
	s.pausedBy.Store(false)

	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.run(s.stop, s.stopped)

	logger.Logf("supervisor", "started: pause after %v, resume below %v", s.cfg.PauseThreshold, s.cfg.ResumeThreshold)
}

// Stop halts polling, waits for the polling goroutine to exit and resets
// the tracker. A machine paused by the supervisor is left paused; the
// caller is shutting it down.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.stopped
	s.stop = nil
	s.stopped = nil

	s.lastPump.Store(0)
	s.pausedBy.Store(false)

	logger.Log("supervisor", "stopped")
}

func (s *Supervisor) run(stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	t := time.NewTicker(s.cfg.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.tick(s.now())
		}
	}
}

// tick evaluates the pump gap at now. Hook failures are logged and left
// for the next tick.
func (s *Supervisor) tick(now time.Time) {
	last := s.lastPump.Load()
	if last == 0 {
		return
	}
	gap := now.Sub(s.epoch) - time.Duration(last-1)

	switch {
	case gap > s.cfg.PauseThreshold:
		if s.pausedBy.Load() || !s.machine.IsRunning() {
			return
		}
		if err := s.machine.Pause(); err != nil {
			logger.Logf("supervisor", "pause after %v without pump failed: %v", gap.Round(time.Millisecond), err)
			return
		}
		s.pausedBy.Store(true)
		s.pauses.Add(1)
		logger.Logf("supervisor", "paused after %v without pump", gap.Round(time.Millisecond))

	case gap < s.cfg.ResumeThreshold:
		if !s.pausedBy.Load() {
			return
		}
		if !s.machine.IsPaused() {
			// resumed by someone else
			s.pausedBy.Store(false)
			return
		}
		if err := s.machine.Resume(); err != nil {
			logger.Logf("supervisor", "resume failed: %v", err)
			return
		}
		s.pausedBy.Store(false)
		s.resumes.Add(1)
		logger.Log("supervisor", "resumed")
	}
}
