//go:build !libretro

package standalone

import (
	"math"
	"testing"
)

func TestLetterbox(t *testing.T) {
	tests := []struct {
		name             string
		frameW, frameH   int
		screenW, screenH int
		aspect           float64
		scale            [2]float64
		offX, offY       float64
	}{
		{"exact fit", 1280, 720, 1280, 720, 0, [2]float64{1, 1}, 0, 0},
		{"pillarbox", 1280, 720, 1600, 720, 0, [2]float64{1, 1}, 160, 0},
		{"letterbox", 1280, 720, 1280, 1000, 0, [2]float64{1, 1}, 0, 140},
		{"double", 640, 360, 1280, 720, 0, [2]float64{2, 2}, 0, 0},
		{"forced 4:3", 1280, 720, 960, 720, 4.0 / 3, [2]float64{0.75, 1}, 0, 0},
		{"empty frame", 0, 0, 100, 100, 0, [2]float64{1, 1}, 0, 0},
	}

	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scale, x, y := letterbox(tt.frameW, tt.frameH, tt.screenW, tt.screenH, tt.aspect)
			if !near(scale[0], tt.scale[0]) || !near(scale[1], tt.scale[1]) {
				t.Errorf("scale = %v, want %v", scale, tt.scale)
			}
			if !near(x, tt.offX) || !near(y, tt.offY) {
				t.Errorf("offset = %v,%v, want %v,%v", x, y, tt.offX, tt.offY)
			}
		})
	}
}
