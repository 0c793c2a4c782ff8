//go:build !libretro

package standalone

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// FramebufferRenderer owns the ebiten image holding the last presented
// frame and draws it letterboxed to the window.
type FramebufferRenderer struct {
	aspect    float64
	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions
}

// NewFramebufferRenderer creates a renderer that keeps frames at the given
// display aspect ratio. Zero uses the frame's own shape.
func NewFramebufferRenderer(aspect float64) *FramebufferRenderer {
	return &FramebufferRenderer{aspect: aspect}
}

// Upload replaces the cached frame with w x h RGBA pixels.
func (r *FramebufferRenderer) Upload(pixels []byte, w, h int) {
	if w <= 0 || h <= 0 || len(pixels) < 4*w*h {
		return
	}
	if r.offscreen == nil || r.offscreen.Bounds().Dx() != w || r.offscreen.Bounds().Dy() != h {
		r.offscreen = ebiten.NewImage(w, h)
	}
	r.offscreen.WritePixels(pixels[:4*w*h])
}

// DrawFramebuffer draws the cached frame. Before the first Upload it draws
// nothing.
func (r *FramebufferRenderer) DrawFramebuffer(screen *ebiten.Image) {
	if r.offscreen == nil {
		return
	}
	b := r.offscreen.Bounds()
	scale, offsetX, offsetY := letterbox(b.Dx(), b.Dy(), screen.Bounds().Dx(), screen.Bounds().Dy(), r.aspect)

	r.drawOpts = ebiten.DrawImageOptions{}
	r.drawOpts.GeoM.Scale(scale[0], scale[1])
	r.drawOpts.GeoM.Translate(offsetX, offsetY)
	r.drawOpts.Filter = ebiten.FilterLinear
	screen.DrawImage(r.offscreen, &r.drawOpts)
}

// letterbox fits a frameW x frameH image shown at aspect into the screen,
// centred. It returns the x and y scale and the offset.
func letterbox(frameW, frameH, screenW, screenH int, aspect float64) (scale [2]float64, offsetX, offsetY float64) {
	if frameW == 0 || frameH == 0 {
		return [2]float64{1, 1}, 0, 0
	}
	if aspect <= 0 {
		aspect = float64(frameW) / float64(frameH)
	}

	outW := float64(screenW)
	outH := outW / aspect
	if outH > float64(screenH) {
		outH = float64(screenH)
		outW = outH * aspect
	}

	scale = [2]float64{outW / float64(frameW), outH / float64(frameH)}
	return scale, (float64(screenW) - outW) / 2, (float64(screenH) - outH) / 2
}
