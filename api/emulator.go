package emucore

import (
	"github.com/user-none/hwbridge/surface"
)

// MachineControl is the lifecycle surface of a free-running machine. It is
// consumed only by the pump supervisor.
type MachineControl interface {
	// Pause stops emulation. It may block briefly while the machine
	// acknowledges.
	Pause() error

	// Resume restarts emulation after Pause.
	Resume() error

	// IsRunning reports whether the machine is executing and not paused.
	IsRunning() bool

	// IsPaused reports whether the machine is paused.
	IsPaused() bool
}

// Machine is an emulated machine that renders and produces audio on its own
// schedule.
type Machine interface {
	MachineControl

	// Start begins free-running emulation.
	Start() error

	// SetInput sets controller state as a button bitmask for the given player.
	SetInput(player int, buttons uint32)

	// Close stops emulation and releases any resources held by the machine.
	Close()
}

// AudioWriter is the producer's push-style audio callback. It writes up to
// len(dst) bytes of samples in the format given to SetAudioSource and
// returns the number of bytes written. Zero means no audio is available.
type AudioWriter func(dst []byte) int

// Producer is the boundary a machine renders and produces audio through.
// All video methods must be called from the producer's graphics context.
type Producer interface {
	// EnsureSize makes the shared surface at least w x h and records w x h
	// as the size of the rendered content.
	EnsureSize(w, h int) error

	// ProducerFramebuffer returns the producer-side framebuffer bound to
	// the current surface generation. The bool is false while the surface
	// is not ready.
	ProducerFramebuffer() (surface.Binding, bool)

	// Flip is called after each internal buffer swap, immediately after
	// the draw commands for it have been submitted. It never blocks.
	Flip()

	// SetAudioSource installs the producer's audio callback and the
	// format of the bytes it writes.
	SetAudioSource(format AudioFormat, w AudioWriter) error
}
