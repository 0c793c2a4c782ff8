// Package emuthread coordinates a machine's emulation goroutine with the
// threads that pause, resume and stop it.
package emuthread

import (
	"errors"
	"sync"
	"time"

	emucore "github.com/user-none/hwbridge/api"
)

// ErrPauseTimeout is returned when the emulation goroutine did not
// acknowledge a pause in time.
var ErrPauseTimeout = errors.New("emulation goroutine did not acknowledge pause")

// ErrStopped is returned when pausing or resuming a stopped machine.
var ErrStopped = errors.New("emulation stopped")

// DefaultPauseTimeout bounds how long Pause waits for the acknowledgement.
const DefaultPauseTimeout = 250 * time.Millisecond

// how often a paused goroutine checks for resume or stop
const pausePoll = 10 * time.Millisecond

var _ emucore.MachineControl = (*EmuControl)(nil)

// EmuControl manages pause/resume/stop coordination between
// the controlling threads and the emulation goroutine.
type EmuControl struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	running  bool
	stopReq  bool
	ackCh    chan struct{}
	stopCh   chan struct{}

	// PauseTimeout is used by Pause. Zero means DefaultPauseTimeout.
	PauseTimeout time.Duration
}

// NewEmuControl creates a new emulation control.
func NewEmuControl() *EmuControl {
	return &EmuControl{
		running: true,
		ackCh:   make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

// Pause implements emucore.MachineControl.
func (ec *EmuControl) Pause() error {
	t := ec.PauseTimeout
	if t <= 0 {
		t = DefaultPauseTimeout
	}
	return ec.RequestPause(t)
}

// Resume implements emucore.MachineControl.
func (ec *EmuControl) Resume() error {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.stopReq {
		return ErrStopped
	}
	ec.pauseReq = false
	ec.paused = false
	return nil
}

// RequestPause asks the emulation goroutine to pause and blocks until it
// acknowledges, the control is stopped, or timeout passes. A request that
// times out is withdrawn.
func (ec *EmuControl) RequestPause(timeout time.Duration) error {
	ec.mu.Lock()
	if ec.stopReq {
		ec.mu.Unlock()
		return ErrStopped
	}
	if ec.paused || ec.pauseReq {
		ec.mu.Unlock()
		return nil
	}

	// discard an acknowledgement left by an earlier withdrawn request
	select {
	case <-ec.ackCh:
	default:
	}

	ec.pauseReq = true
	ec.mu.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-ec.ackCh:
		return nil
	case <-ec.stopCh:
		return ErrStopped
	case <-t.C:
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.paused {
		// acknowledged while the timer fired
		return nil
	}
	ec.pauseReq = false
	return ErrPauseTimeout
}

// CheckPause is called by the emulation goroutine between frames.
// If a pause has been requested, it sends an acknowledgment and
// waits until resumed or stopped. Returns false if the goroutine
// should exit.
func (ec *EmuControl) CheckPause() bool {
	ec.mu.Lock()
	if !ec.running || ec.stopReq {
		ec.mu.Unlock()
		return false
	}
	if !ec.pauseReq {
		ec.mu.Unlock()
		return true
	}

	// Acknowledge pause request
	ec.paused = true
	ec.mu.Unlock()

	select {
	case ec.ackCh <- struct{}{}:
	default:
	}

	for {
		ec.mu.Lock()
		if !ec.running || ec.stopReq {
			ec.mu.Unlock()
			return false
		}
		if !ec.pauseReq {
			ec.paused = false
			ec.mu.Unlock()
			return true
		}
		ec.mu.Unlock()

		select {
		case <-ec.stopCh:
		case <-time.After(pausePoll):
		}
	}
}

// Stop signals the emulation goroutine to exit.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.stopReq {
		return
	}
	ec.running = false
	ec.stopReq = true
	// Also clear pause so CheckPause unblocks
	ec.pauseReq = false
	close(ec.stopCh)
}

// Done is closed by Stop.
func (ec *EmuControl) Done() <-chan struct{} {
	return ec.stopCh
}

// ShouldRun returns true if the goroutine should continue running.
func (ec *EmuControl) ShouldRun() bool {
	ec.mu.Lock()
	r := ec.running && !ec.stopReq
	ec.mu.Unlock()
	return r
}

// IsRunning implements emucore.MachineControl: running and not paused.
func (ec *EmuControl) IsRunning() bool {
	ec.mu.Lock()
	r := ec.running && !ec.stopReq && !ec.paused
	ec.mu.Unlock()
	return r
}

// IsPaused returns true if the emulation goroutine is currently paused.
func (ec *EmuControl) IsPaused() bool {
	ec.mu.Lock()
	p := ec.paused
	ec.mu.Unlock()
	return p
}
