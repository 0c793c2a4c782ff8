// Package testpattern is a synthetic machine that renders and produces
// audio on its own schedule, the way an emulator with its own graphics
// thread does. It draws through the Producer it is created with and swaps
// twice per displayed frame.
package testpattern

import (
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"
	"time"

	emucore "github.com/user-none/hwbridge/api"
	"github.com/user-none/hwbridge/emuthread"
	"github.com/user-none/hwbridge/logger"
)

// Painter fills rectangles of a producer framebuffer.
type Painter interface {
	Fill(fb uint32, r image.Rectangle, c color.RGBA)
}

// Context is the producer's graphics context. MakeCurrent is called on the
// emulation goroutine's locked OS thread before the first frame and Release
// after the last.
type Context interface {
	MakeCurrent() error
	Release()
}

// Config describes the pattern.
type Config struct {
	Width  int
	Height int
	FPS    float64

	SampleRate int

	// Scales lists render scale factors. The machine steps to the next one
	// every ScaleEvery frames, which exercises surface growth.
	Scales     []int
	ScaleEvery int
}

// DefaultConfig is a 640x360 pattern rendered at 1x and 2x.
func DefaultConfig() Config {
	return Config{
		Width:      640,
		Height:     360,
		FPS:        60,
		SampleRate: 48000,
		Scales:     []int{1, 2},
		ScaleEvery: 600,
	}
}

// Machine is the free-running pattern generator. It implements
// emucore.Machine.
type Machine struct {
	cfg     Config
	out     emucore.Producer
	painter Painter
	context Context

	ctrl  *emuthread.EmuControl
	input emuthread.SharedInput
	tone  *tone

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	frames    uint64
}

var _ emucore.Machine = (*Machine)(nil)

// NewMachine returns a stopped machine. context may be nil when the
// painter needs no current context.
func NewMachine(cfg Config, out emucore.Producer, painter Painter, context Context) (*Machine, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 || cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("testpattern: invalid config %+v", cfg)
	}
	if len(cfg.Scales) == 0 {
		cfg.Scales = []int{1}
	}
	if cfg.ScaleEvery <= 0 {
		cfg.ScaleEvery = 1
	}
	return &Machine{
		cfg:     cfg,
		out:     out,
		painter: painter,
		context: context,
		ctrl:    emuthread.NewEmuControl(),
		tone:    newTone(cfg.SampleRate),
		done:    make(chan struct{}),
	}, nil
}

// Start installs the audio source and starts the emulation goroutine.
func (m *Machine) Start() error {
	err := fmt.Errorf("testpattern: already started")
	m.startOnce.Do(func() {
		format := emucore.AudioFormat{Rate: m.cfg.SampleRate, Format: emucore.SampleF32, Channels: 2}
		if err = m.out.SetAudioSource(format, m.tone.write); err != nil {
			err = fmt.Errorf("testpattern: %w", err)
			close(m.done)
			return
		}
		go m.run()
	})
	return err
}

// Pause implements emucore.MachineControl.
func (m *Machine) Pause() error { return m.ctrl.Pause() }

// Resume implements emucore.MachineControl.
func (m *Machine) Resume() error { return m.ctrl.Resume() }

// IsRunning implements emucore.MachineControl.
func (m *Machine) IsRunning() bool { return m.ctrl.IsRunning() }

// IsPaused implements emucore.MachineControl.
func (m *Machine) IsPaused() bool { return m.ctrl.IsPaused() }

// SetInput sets the buttons held by player. Any button on player 0 raises
// the tone by a fifth.
func (m *Machine) SetInput(player int, buttons uint32) {
	m.input.Set(player, buttons)
}

// Close stops the emulation goroutine and waits for it to exit.
func (m *Machine) Close() {
	m.closeOnce.Do(func() {
		m.ctrl.Stop()
		started := true
		m.startOnce.Do(func() { started = false })
		if started {
			<-m.done
		}
	})
}

// Frames returns the number of frames rendered. Only valid after Close.
func (m *Machine) Frames() uint64 {
	return m.frames
}

func (m *Machine) run() {
	defer close(m.done)

	// graphics contexts are bound to OS threads
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if m.context != nil {
		if err := m.context.MakeCurrent(); err != nil {
			logger.Logf("testpattern", "cannot make producer context current: %v", err)
			return
		}
		defer m.context.Release()
	}

	period := time.Duration(float64(time.Second) / m.cfg.FPS)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	samplesPerFrame := float64(m.cfg.SampleRate) / m.cfg.FPS

	for m.ctrl.ShouldRun() {
		if !m.ctrl.CheckPause() {
			return
		}

		if err := m.frame(); err != nil {
			logger.Logf("testpattern", "frame %d: %v", m.frames, err)
		}
		m.tone.advance(samplesPerFrame)

		select {
		case <-ticker.C:
		case <-m.ctrl.Done():
			return
		}
	}
}

func (m *Machine) frame() error {
	scale := m.cfg.Scales[int(m.frames/uint64(m.cfg.ScaleEvery))%len(m.cfg.Scales)]
	w, h := m.cfg.Width*scale, m.cfg.Height*scale

	if err := m.out.EnsureSize(w, h); err != nil {
		return err
	}
	fb, ok := m.out.ProducerFramebuffer()
	if !ok {
		return fmt.Errorf("producer framebuffer not ready")
	}

	held := m.input.Read()[0] != 0
	if held {
		m.tone.setFrequency(660)
	} else {
		m.tone.setFrequency(440)
	}

	// first swap: background and a bar sweeping left to right
	bg := color.RGBA{R: 16, G: 16, B: 32, A: 255}
	if held {
		bg = color.RGBA{R: 48, G: 16, B: 16, A: 255}
	}
	m.painter.Fill(fb.Handle, image.Rect(0, 0, w, h), bg)

	barW := max(w/16, 1)
	x := int(m.frames*uint64(4*scale)) % (w + barW)
	m.painter.Fill(fb.Handle, image.Rect(x-barW, 0, x, h), barColor(m.frames))
	m.out.Flip()

	// second swap: frame counter strip along the bottom
	strip := max(h/32, 1)
	for bit := range 32 {
		c := color.RGBA{A: 255}
		if m.frames&(1<<bit) != 0 {
			c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
		}
		x0 := bit * w / 32
		m.painter.Fill(fb.Handle, image.Rect(x0, h-strip, x0+w/32, h), c)
	}
	m.out.Flip()

	m.frames++
	return nil
}

func barColor(frame uint64) color.RGBA {
	switch (frame / 60) % 3 {
	case 0:
		return color.RGBA{R: 255, A: 255}
	case 1:
		return color.RGBA{G: 255, A: 255}
	default:
		return color.RGBA{B: 255, A: 255}
	}
}
