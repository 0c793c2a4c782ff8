package testpattern

import (
	"encoding/binary"
	"math"
	"sync"
)

// tone generates a stereo float32 sine. Frames become available as the
// machine emulates time; the audio callback never gets ahead of the
// machine.
type tone struct {
	mu    sync.Mutex
	rate  float64
	phase float64
	freq  float64
	owed  float64
}

func newTone(rate int) *tone {
	return &tone{rate: float64(rate), freq: 440}
}

func (t *tone) setFrequency(f float64) {
	t.mu.Lock()
	t.freq = f
	t.mu.Unlock()
}

// advance makes frames more frames available.
func (t *tone) advance(frames float64) {
	t.mu.Lock()
	t.owed = min(t.owed+frames, t.rate) // never bank more than a second
	t.mu.Unlock()
}

// write implements emucore.AudioWriter for stereo F32.
func (t *tone) write(dst []byte) int {
	const frameBytes = 8

	t.mu.Lock()
	defer t.mu.Unlock()

	frames := min(len(dst)/frameBytes, int(t.owed))
	if frames <= 0 {
		return 0
	}

	step := 2 * math.Pi * t.freq / t.rate
	for i := range frames {
		v := float32(0.25 * math.Sin(t.phase))
		bits := math.Float32bits(v)
		binary.LittleEndian.PutUint32(dst[i*frameBytes:], bits)
		binary.LittleEndian.PutUint32(dst[i*frameBytes+4:], bits)
		t.phase += step
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
	t.owed -= float64(frames)
	return frames * frameBytes
}
