// Package audioring decouples a producer that emits audio in large,
// irregular bursts from a consumer that takes small batches every pump
// cycle.
//
// Audio is stored in the producer's format and converted to stereo s16 on
// the way out. The consumer never blocks: if the ring lock is contended for
// longer than LockTimeout, Pull returns no audio for that cycle.
package audioring

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	emucore "github.com/user-none/hwbridge/api"
	"github.com/user-none/hwbridge/logger"
)

var (
	// ErrNotOpen is returned by operations that need an open decoupler.
	ErrNotOpen = errors.New("audio decoupler not open")

	// ErrInvalidFormat is returned by Open for an unusable format.
	ErrInvalidFormat = errors.New("invalid audio format")
)

const (
	// DefaultBuffer is the playback time the ring holds.
	DefaultBuffer = 500 * time.Millisecond

	// LockTimeout bounds how long Pull waits for the ring lock.
	LockTimeout = 100 * time.Microsecond

	// PullFrames is the most frames requested from the producer callback
	// per attempt, and PullAttempts the most attempts per Pull.
	PullFrames   = 2048
	PullAttempts = 4

	// BatchFrames and MaxBatches bound the work done by Process.
	BatchFrames = 512
	MaxBatches  = 4
)

// Decoupler is the audio ring between the producer and the pump. Push and
// the write callback run on the producer side; Pull and Process run on the
// pump.
type Decoupler struct {
	mu timedMutex

	// guarded by mu
	ring    *Ring
	format  emucore.AudioFormat
	writer  emucore.AudioWriter
	scratch []byte
	readBuf []byte

	open    atomic.Bool
	playing atomic.Bool

	contended atomic.Uint64
	throttle  *logger.Throttle
}

// NewDecoupler returns a closed decoupler.
func NewDecoupler() *Decoupler {
	return &Decoupler{
		mu:       newTimedMutex(),
		throttle: logger.NewThrottle("audio", 5*time.Second),
	}
}

// Open sizes the ring to hold buffer worth of audio in format and resets
// it. A zero buffer means DefaultBuffer. Open leaves the play state
// unchanged.
func (d *Decoupler) Open(format emucore.AudioFormat, buffer time.Duration) error {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if !format.Valid() {
		return fmt.Errorf("%w: %d Hz %v x%d", ErrInvalidFormat, format.Rate, format.Format, format.Channels)
	}
	capacity := int(int64(format.BytesPerSecond()) * int64(buffer) / int64(time.Second))
	return d.openCapacity(format, capacity)
}

func (d *Decoupler) openCapacity(format emucore.AudioFormat, capacity int) error {
	if !format.Valid() {
		return fmt.Errorf("%w: %d Hz %v x%d", ErrInvalidFormat, format.Rate, format.Format, format.Channels)
	}
	fb := format.FrameBytes()
	if capacity < fb {
		return fmt.Errorf("%w: ring of %d bytes cannot hold a %d byte frame", ErrInvalidFormat, capacity, fb)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.format = format
	d.ring = NewRing(capacity)
	d.scratch = make([]byte, PullFrames*fb)
	d.readBuf = d.readBuf[:0]
	d.open.Store(true)

	logger.Logf("audio", "open: %d Hz %v x%d, ring %d bytes", format.Rate, format.Format, format.Channels, capacity)
	return nil
}

// Close stops playback and discards the ring.
func (d *Decoupler) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.playing.Store(false)
	if d.open.Swap(false) {
		logger.Log("audio", "close")
	}
	d.ring = nil
}

// Play starts delivering audio from Pull.
func (d *Decoupler) Play() { d.playing.Store(true) }

// Pause makes Pull return no audio. Buffered audio is kept.
func (d *Decoupler) Pause() { d.playing.Store(false) }

// Playing reports whether the decoupler is open and playing.
func (d *Decoupler) Playing() bool {
	return d.open.Load() && d.playing.Load()
}

// SetWriteCallback installs the producer callback Pull drains from. A nil
// callback disables draining; audio can still arrive through Push.
func (d *Decoupler) SetWriteCallback(w emucore.AudioWriter) {
	d.mu.Lock()
	d.writer = w
	d.mu.Unlock()
}

// Push copies producer audio into the ring and returns the number of bytes
// accepted. Data beyond the free space is dropped, as is everything when
// the ring lock stays contended for longer than LockTimeout.
func (d *Decoupler) Push(p []byte) (int, error) {
	if !d.mu.TryLockFor(LockTimeout) {
		d.contended.Add(1)
		d.throttle.Logf("ring lock contended, dropping %d pushed bytes", len(p))
		return 0, nil
	}
	defer d.mu.Unlock()

	if d.ring == nil {
		return 0, ErrNotOpen
	}
	return d.ring.Write(p), nil
}

// Buffered returns the number of bytes in the ring.
func (d *Decoupler) Buffered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ring == nil {
		return 0
	}
	return d.ring.Used()
}

// Contended returns how many Pull and Push calls gave up waiting for the lock.
func (d *Decoupler) Contended() uint64 {
	return d.contended.Load()
}

// Pull fills dst with up to maxFrames frames of interleaved stereo s16 and
// returns the number of frames written. Before reading it drains the
// producer callback into the ring. It returns 0 when not playing, when
// nothing is buffered or when the lock is contended.
func (d *Decoupler) Pull(dst []int16, maxFrames int) int {
	if !d.open.Load() || !d.playing.Load() {
		return 0
	}
	if !d.mu.TryLockFor(LockTimeout) {
		d.contended.Add(1)
		d.throttle.Logf("ring lock contended, dropping audio for this cycle")
		return 0
	}
	defer d.mu.Unlock()

	if d.ring == nil {
		return 0
	}

	d.fill()

	fb := d.format.FrameBytes()
	frames := min(maxFrames, d.ring.Used()/fb, len(dst)/OutputChannels)
	if frames <= 0 {
		return 0
	}

	n := frames * fb
	if cap(d.readBuf) < n {
		d.readBuf = make([]byte, n)
	}
	buf := d.readBuf[:n]
	d.ring.Read(buf)

	convert(dst, buf, d.format, frames)
	return frames
}

// fill runs the producer callback into the ring. Each attempt asks for at
// most PullFrames frames and never more than the whole frames that fit.
func (d *Decoupler) fill() {
	if d.writer == nil {
		return
	}
	fb := d.format.FrameBytes()

	for range PullAttempts {
		frames := min(PullFrames, d.ring.Free()/fb)
		if frames == 0 {
			return
		}
		n := d.writer(d.scratch[:frames*fb])
		if n <= 0 {
			return
		}
		d.ring.Write(d.scratch[:min(n, frames*fb)])
	}
}

// Sink receives one batch of interleaved stereo s16 audio.
type Sink func(samples []int16, frames int)

// Processor drains the decoupler into a sink in fixed-size batches.
type Processor struct {
	d   *Decoupler
	buf []int16
}

// NewProcessor returns a processor for d.
func NewProcessor(d *Decoupler) *Processor {
	return &Processor{
		d:   d,
		buf: make([]int16, BatchFrames*OutputChannels),
	}
}

// Process sends up to MaxBatches batches of BatchFrames frames to sink,
// stopping after the first short batch. It returns the total number of
// frames delivered. The samples slice passed to sink is reused.
func (p *Processor) Process(sink Sink) int {
	if sink == nil {
		return 0
	}
	total := 0
	for range MaxBatches {
		frames := p.d.Pull(p.buf, BatchFrames)
		if frames > 0 {
			sink(p.buf[:frames*OutputChannels], frames)
			total += frames
		}
		if frames < BatchFrames {
			break
		}
	}
	return total
}
