// Package pump connects a free-running producer to a host that pulls one
// frame and one slice of audio per call.
//
// The producer renders through the Bridge's emucore.Producer methods on its
// own graphics context. The host calls Run once per cycle on the consumer
// context. Run never blocks for longer than the fence budget plus the
// audio lock timeout.
package pump

import (
	"fmt"
	"image"
	"sync/atomic"
	"time"

	emucore "github.com/user-none/hwbridge/api"
	"github.com/user-none/hwbridge/audioring"
	"github.com/user-none/hwbridge/fence"
	"github.com/user-none/hwbridge/handoff"
	"github.com/user-none/hwbridge/logger"
	"github.com/user-none/hwbridge/supervisor"
	"github.com/user-none/hwbridge/surface"
)

// Host is the consumer side of the bridge. Every method is called from the
// host's pump thread with the consumer context current.
type Host interface {
	PollInput()

	// CurrentFramebuffer returns the framebuffer the frame is presented
	// from.
	CurrentFramebuffer() uint32

	// PresentFrame reports a new w x h frame in the current framebuffer.
	PresentFrame(w, h int)

	// DupeFrame asks the host to show the previous frame again.
	DupeFrame()

	// AudioBatch delivers interleaved stereo s16 samples. The slice is
	// reused after the call returns.
	AudioBatch(samples []int16, frames int)
}

// Blitter copies between consumer-context framebuffers.
type Blitter interface {
	// Blit scales sr of src into dr of dst with linear filtering.
	Blit(src, dst uint32, sr, dr image.Rectangle)

	// Cleanup unbinds everything the bridge may have left bound on the
	// consumer context.
	Cleanup()
}

// Device is everything the bridge needs from the graphics API.
type Device interface {
	surface.Device
	fence.Syncer
	Blitter
}

var _ emucore.Producer = (*Bridge)(nil)

// Bridge owns the shared surface, the fence barrier, the frame handoff, the
// audio ring and the pump supervisor.
type Bridge struct {
	cfg     Config
	blitter Blitter

	surfaces *surface.Manager
	barrier  *fence.Barrier
	frames   handoff.Handoff
	flips    *handoff.FlipCollapser
	audio    *audioring.Decoupler
	drain    *audioring.Processor

	sup  atomic.Pointer[supervisor.Supervisor]
	taps []audioring.Sink

	stats Stats

	fenceLog    *logger.Throttle
	notReadyLog *logger.Throttle
}

// NewBridge returns a bridge allocating through dev.
func NewBridge(cfg Config, dev Device) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bridge{
		cfg:         cfg,
		blitter:     dev,
		surfaces:    surface.NewManager(dev),
		barrier:     fence.NewBarrier(dev),
		audio:       audioring.NewDecoupler(),
		fenceLog:    logger.NewThrottle("fence", 5*time.Second),
		notReadyLog: logger.NewThrottle("surface", 5*time.Second),
	}
	b.flips = handoff.NewFlipCollapser(&b.frames)
	b.drain = audioring.NewProcessor(b.audio)

	logger.Logf("pump", "bridge %dx%d, fence budget %v, audio buffer %v",
		cfg.BaseWidth, cfg.BaseHeight, cfg.FenceBudget, cfg.AudioBuffer)
	return b, nil
}

// Config returns the bridge configuration.
func (b *Bridge) Config() Config { return b.cfg }

// Stats returns the bridge counters.
func (b *Bridge) Stats() *Stats { return &b.stats }

// Surfaces returns the shared surface manager.
func (b *Bridge) Surfaces() *surface.Manager { return b.surfaces }

// Audio returns the audio decoupler.
func (b *Bridge) Audio() *audioring.Decoupler { return b.audio }

// Frames returns the frame and presented counters.
func (b *Bridge) Frames() (frames, presented uint64) { return b.frames.Counters() }

// Supervisor returns the attached supervisor, or nil.
func (b *Bridge) Supervisor() *supervisor.Supervisor { return b.sup.Load() }

// AddAudioTap registers a sink that sees every batch sent to the host. It
// must be called before the first Run.
func (b *Bridge) AddAudioTap(s audioring.Sink) {
	b.taps = append(b.taps, s)
}

// Attach puts machine under the pump supervisor, if supervision is
// enabled. It must be called before the first Run.
func (b *Bridge) Attach(machine emucore.MachineControl) error {
	if !b.cfg.Supervise {
		return nil
	}
	s, err := supervisor.New(b.cfg.Supervisor, machine)
	if err != nil {
		return fmt.Errorf("pump: %w", err)
	}
	if old := b.sup.Swap(s); old != nil {
		old.Stop()
	}
	return nil
}

// Start starts the supervisor, if one is attached.
func (b *Bridge) Start() {
	if s := b.sup.Load(); s != nil {
		s.Start()
	}
}

// EnsureSize implements emucore.Producer.
func (b *Bridge) EnsureSize(w, h int) error {
	return b.surfaces.EnsureSize(w, h)
}

// ProducerFramebuffer implements emucore.Producer.
func (b *Bridge) ProducerFramebuffer() (surface.Binding, bool) {
	return b.surfaces.ProducerFramebuffer()
}

// Flip implements emucore.Producer. Every swap is fenced; every
// handoff.SwapsPerFrame swaps complete a frame.
func (b *Bridge) Flip() {
	b.barrier.Signal()
	b.flips.Flip()
}

// SetAudioSource implements emucore.Producer. It opens the audio ring for
// format and starts playback.
func (b *Bridge) SetAudioSource(format emucore.AudioFormat, w emucore.AudioWriter) error {
	if err := b.audio.Open(format, b.cfg.AudioBuffer); err != nil {
		return err
	}
	b.audio.SetWriteCallback(w)
	b.audio.Play()
	return nil
}

// Run executes one pump cycle: input, audio, fence wait, then either
// present a new frame or ask the host to reuse the previous one.
func (b *Bridge) Run(host Host) CycleResult {
	b.stats.cycles.Add(1)

	if s := b.sup.Load(); s != nil {
		s.Touch()
	}

	host.PollInput()
	b.drainAudio(host)

	b.blitter.Cleanup()
	b.waitFence()

	frame, ok := b.frames.NewFrame()
	if !ok {
		host.DupeFrame()
		b.stats.duped.Add(1)
		return Duped
	}

	src, ok := b.surfaces.ConsumerFramebuffer()
	if !ok || src.ContentWidth == 0 || src.ContentHeight == 0 {
		b.notReadyLog.Logf("new frame but shared surface not ready, reusing previous frame")
		host.DupeFrame()
		b.stats.notReady.Add(1)
		return NotReady
	}

	dst := host.CurrentFramebuffer()
	b.blitter.Blit(src.Handle, dst, src.Content(), image.Rect(0, 0, b.cfg.BaseWidth, b.cfg.BaseHeight))
	b.blitter.Cleanup()

	host.PresentFrame(b.cfg.BaseWidth, b.cfg.BaseHeight)
	b.stats.dropped.Add(b.frames.MarkPresented(frame))
	b.stats.presented.Add(1)
	return Presented
}

func (b *Bridge) waitFence() {
	r := b.barrier.Wait(b.cfg.FenceBudget)
	if r == fence.NoFence {
		return
	}
	b.stats.fenceWaits.Add(1)

	switch r {
	case fence.TimeoutExpired:
		b.stats.fenceTimeouts.Add(1)
		b.fenceLog.Logf("wait exceeded %v, presenting surface as is", b.cfg.FenceBudget)
	case fence.WaitFailed:
		b.fenceLog.Logf("wait failed, presenting surface as is")
	}
}

func (b *Bridge) drainAudio(host Host) {
	n := b.drain.Process(func(samples []int16, frames int) {
		host.AudioBatch(samples, frames)
		for _, t := range b.taps {
			t(samples, frames)
		}
	})
	if n > 0 {
		b.stats.audioFrames.Add(uint64(n))
	} else if b.audio.Playing() {
		b.stats.audioUnderruns.Add(1)
	}
}

// ReleaseConsumer stops the supervisor and releases everything owned by the
// consumer context. It must be called on the consumer context before that
// context is destroyed.
func (b *Bridge) ReleaseConsumer() {
	if s := b.sup.Load(); s != nil {
		s.Stop()
	}
	b.barrier.Discard()
	b.surfaces.ReleaseConsumer()
}

// ReleaseProducer destroys the shared surface. It must be called on the
// producer context after the producer has stopped rendering and after
// ReleaseConsumer.
func (b *Bridge) ReleaseProducer() {
	b.barrier.Discard()
	b.surfaces.Destroy()
}

// Close stops the supervisor and closes the audio ring.
func (b *Bridge) Close() {
	if s := b.sup.Load(); s != nil {
		s.Stop()
	}
	b.audio.Close()
}

// Reset zeroes the frame counters. Neither the producer nor the pump may be
// running.
func (b *Bridge) Reset() {
	b.frames.Reset()
	b.flips.Reset()
}
