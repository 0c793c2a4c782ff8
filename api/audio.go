package emucore

// SampleFormat identifies the encoding of a single audio sample.
type SampleFormat int

const (
	SampleS16 SampleFormat = iota // signed 16-bit little-endian
	SampleF32                     // 32-bit IEEE float little-endian, nominal range [-1, 1]
)

// String returns the display name of the sample format.
func (f SampleFormat) String() string {
	switch f {
	case SampleS16:
		return "S16"
	case SampleF32:
		return "F32"
	default:
		return "Unknown"
	}
}

// Width returns the size of one sample in bytes.
func (f SampleFormat) Width() int {
	switch f {
	case SampleS16:
		return 2
	case SampleF32:
		return 4
	default:
		return 0
	}
}

// AudioFormat describes the layout of interleaved PCM audio.
type AudioFormat struct {
	Rate     int
	Format   SampleFormat
	Channels int
}

// FrameBytes returns the size in bytes of one frame (one sample for every
// channel).
func (af AudioFormat) FrameBytes() int {
	return af.Format.Width() * af.Channels
}

// BytesPerSecond returns the byte rate of the format.
func (af AudioFormat) BytesPerSecond() int {
	return af.Rate * af.FrameBytes()
}

// Valid reports whether the format describes playable audio.
func (af AudioFormat) Valid() bool {
	return af.Rate > 0 && af.Channels > 0 && af.Format.Width() > 0
}
