// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package wavwriter records the audio sent to the host as a 16-bit stereo
// WAV file. Audio is buffered in memory in its entirety and written to disk
// on Close, so it is meant for diagnostic captures rather than long
// sessions.
package wavwriter

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/user-none/hwbridge/audioring"
	"github.com/user-none/hwbridge/logger"
)

const (
	bitDepth = 16

	// wavFormatPCM is the WAVE_FORMAT_PCM format tag
	wavFormatPCM = 1
)

// ErrClosed is returned by Close after the capture has been written.
var ErrClosed = errors.New("wavwriter: already closed")

// WavWriter collects interleaved s16 batches.
type WavWriter struct {
	filename   string
	sampleRate int

	mu     sync.Mutex
	buffer []int
	closed bool
}

// New is the preferred method of initialisation for the WavWriter type.
func New(filename string, sampleRate int) (*WavWriter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wavwriter: invalid sample rate %d", sampleRate)
	}
	return &WavWriter{
		filename:   filename,
		sampleRate: sampleRate,
	}, nil
}

// Batch appends frames of interleaved stereo samples. Its signature matches
// audioring.Sink so it can be registered as a bridge audio tap.
func (aw *WavWriter) Batch(samples []int16, frames int) {
	n := min(frames*audioring.OutputChannels, len(samples))

	aw.mu.Lock()
	defer aw.mu.Unlock()
	if aw.closed {
		return
	}
	for _, s := range samples[:n] {
		aw.buffer = append(aw.buffer, int(s))
	}
}

// Frames returns the number of stereo frames collected so far.
func (aw *WavWriter) Frames() int {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	return len(aw.buffer) / audioring.OutputChannels
}

// Close encodes the collected audio to the file. Batches arriving after
// Close are discarded.
func (aw *WavWriter) Close() (rerr error) {
	aw.mu.Lock()
	if aw.closed {
		aw.mu.Unlock()
		return ErrClosed
	}
	aw.closed = true
	data := aw.buffer
	aw.buffer = nil
	aw.mu.Unlock()

	f, err := os.Create(aw.filename)
	if err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wavwriter: %w", err)
		}
	}()

	enc := wav.NewEncoder(f, aw.sampleRate, bitDepth, audioring.OutputChannels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: audioring.OutputChannels,
			SampleRate:  aw.sampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	logger.Logf("wavwriter", "writing %d frames of audio to %s", len(data)/audioring.OutputChannels, aw.filename)

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	return nil
}
