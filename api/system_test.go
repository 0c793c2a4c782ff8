package emucore

import (
	"math"
	"testing"
)

func TestDisplayAspectRatio(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		par      float64
		expected float64
	}{
		{
			name:     "720p square pixels",
			width:    1280,
			height:   720,
			par:      1.0,
			expected: 1280.0 / 720.0,
		},
		{
			name:     "zero par treated as square",
			width:    1280,
			height:   720,
			par:      0,
			expected: 1280.0 / 720.0,
		},
		{
			name:     "anamorphic 480 lines",
			width:    720,
			height:   480,
			par:      32.0 / 27.0,
			expected: (720.0 / 480.0) * (32.0 / 27.0),
		},
		{
			name:     "zero height",
			width:    1280,
			height:   0,
			par:      1.0,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisplayAspectRatio(tt.width, tt.height, tt.par)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("DisplayAspectRatio(%d, %d, %f) = %f, want %f",
					tt.width, tt.height, tt.par, got, tt.expected)
			}
		})
	}
}

func TestAudioFormat(t *testing.T) {
	tests := []struct {
		name       string
		format     AudioFormat
		frameBytes int
		perSecond  int
		valid      bool
	}{
		{"stereo s16 48k", AudioFormat{Rate: 48000, Format: SampleS16, Channels: 2}, 4, 192000, true},
		{"stereo f32 48k", AudioFormat{Rate: 48000, Format: SampleF32, Channels: 2}, 8, 384000, true},
		{"8ch f32", AudioFormat{Rate: 48000, Format: SampleF32, Channels: 8}, 32, 1536000, true},
		{"no channels", AudioFormat{Rate: 48000, Format: SampleS16}, 0, 0, false},
		{"unknown format", AudioFormat{Rate: 48000, Format: SampleFormat(9), Channels: 2}, 0, 0, false},
		{"zero rate", AudioFormat{Format: SampleS16, Channels: 2}, 4, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.FrameBytes(); got != tt.frameBytes {
				t.Errorf("FrameBytes() = %d, want %d", got, tt.frameBytes)
			}
			if got := tt.format.BytesPerSecond(); got != tt.perSecond {
				t.Errorf("BytesPerSecond() = %d, want %d", got, tt.perSecond)
			}
			if got := tt.format.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}
