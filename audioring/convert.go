package audioring

import (
	"encoding/binary"
	"math"

	emucore "github.com/user-none/hwbridge/api"
)

// OutputChannels is the channel count of converted output.
const OutputChannels = 2

// convert decodes frames of src, stored as format, into interleaved stereo
// s16 in dst. Float samples are clamped to [-1, 1]. Mono is duplicated to
// both channels; layouts wider than stereo keep the front left and right
// channels.
func convert(dst []int16, src []byte, format emucore.AudioFormat, frames int) {
	fb := format.FrameBytes()
	width := format.Format.Width()

	for f := range frames {
		frame := src[f*fb : (f+1)*fb]
		left := sample(frame, format.Format)
		right := left
		if format.Channels > 1 {
			right = sample(frame[width:], format.Format)
		}
		dst[f*OutputChannels] = left
		dst[f*OutputChannels+1] = right
	}
}

func sample(b []byte, f emucore.SampleFormat) int16 {
	switch f {
	case emucore.SampleF32:
		return FloatToS16(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	default:
		return int16(binary.LittleEndian.Uint16(b))
	}
}

// FloatToS16 converts a nominal [-1, 1] float sample to s16, clamping out
// of range values. NaN becomes silence.
func FloatToS16(v float32) int16 {
	switch {
	case v != v:
		return 0
	case v > 1:
		v = 1
	case v < -1:
		v = -1
	}
	return int16(v * 32767)
}
