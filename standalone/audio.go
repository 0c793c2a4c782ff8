//go:build !libretro

package standalone

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/user-none/hwbridge/audioring"
)

// ringBufferDuration is the playback time held ahead of oto's player.
const ringBufferDuration = 170 * time.Millisecond

// AudioPlayer plays the bridge's s16 stereo batches through oto. Batches
// go to a ring buffer that oto's player reads from in a pull model.
type AudioPlayer struct {
	player     *oto.Player
	ringBuffer *AudioRingBuffer
	audioBytes []byte
}

// oto allows one context per process
var (
	otoCtx      *oto.Context
	otoCtxRate  int
	otoInitOnce sync.Once
	otoInitErr  error
)

func ensureOtoContext(sampleRate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: audioring.OutputChannels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		otoCtxRate = sampleRate
		<-readyChan
	})
	if otoInitErr == nil && otoCtxRate != sampleRate {
		return nil, fmt.Errorf("oto context already running at %d Hz", otoCtxRate)
	}
	return otoCtx, otoInitErr
}

// NewAudioPlayer creates and starts a player for sampleRate. The volume is
// applied before playback starts so a muted player never pops.
func NewAudioPlayer(sampleRate int, volume float64) (*AudioPlayer, error) {
	ctx, err := ensureOtoContext(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	frameBytes := audioring.OutputChannels * 2
	capacity := int(ringBufferDuration.Seconds()*float64(sampleRate)) * frameBytes

	rb := NewAudioRingBuffer(capacity)
	player := ctx.NewPlayer(rb)
	// about 50ms inside the player instead of the default half second
	player.SetBufferSize(sampleRate / 20 * frameBytes)
	player.SetVolume(clampVolume(volume))
	player.Play()

	return &AudioPlayer{
		player:     player,
		ringBuffer: rb,
		audioBytes: make([]byte, 0, 4096),
	}, nil
}

// Batch queues frames of interleaved stereo samples. Its signature matches
// audioring.Sink.
func (a *AudioPlayer) Batch(samples []int16, frames int) {
	n := min(frames*audioring.OutputChannels, len(samples))
	if n <= 0 {
		return
	}

	needed := n * 2
	if cap(a.audioBytes) < needed {
		a.audioBytes = make([]byte, 0, needed)
	}
	a.audioBytes = a.audioBytes[:0]
	for _, sample := range samples[:n] {
		a.audioBytes = append(a.audioBytes, byte(sample), byte(sample>>8))
	}

	a.ringBuffer.Write(a.audioBytes)
}

// GetBufferLevel returns the bytes of audio queued in the ring buffer and
// the player.
func (a *AudioPlayer) GetBufferLevel() int {
	return a.ringBuffer.Buffered() + a.player.BufferedSize()
}

// ClearQueue flushes all buffered audio from the ring buffer.
func (a *AudioPlayer) ClearQueue() {
	a.ringBuffer.Clear()
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = normal, 2.0 = max).
func (a *AudioPlayer) SetVolume(vol float64) {
	a.player.SetVolume(clampVolume(vol))
}

func clampVolume(vol float64) float64 {
	return max(0, min(vol, 2.0))
}

// Close cleans up audio resources.
func (a *AudioPlayer) Close() {
	if a.ringBuffer != nil {
		a.ringBuffer.Close()
	}
	if a.player != nil {
		a.player.Close()
	}
}
