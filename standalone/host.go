//go:build !libretro

package standalone

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	emucore "github.com/user-none/hwbridge/api"
	"github.com/user-none/hwbridge/pump"
	"github.com/user-none/hwbridge/softdevice"
	"github.com/user-none/hwbridge/surface"
)

// InputSink receives polled controller state.
type InputSink interface {
	SetInput(player int, buttons uint32)
}

// softHost is the pump.Host of the standalone window. Frames are blitted
// into a softdevice target and copied into the renderer; a dupe leaves the
// renderer's cached image in place.
type softHost struct {
	dev      *softdevice.Device
	target   uint32
	renderer *FramebufferRenderer
	audio    *AudioPlayer

	input   InputSink
	mapping InputMapping
	players int

	// pixels holds the last presented width x height frame.
	pixels []byte
	width  int
	height int
	dupes  uint64
}

var _ pump.Host = (*softHost)(nil)

func newSoftHost(dev *softdevice.Device, w, h int, info emucore.SystemInfo, renderer *FramebufferRenderer, audio *AudioPlayer, input InputSink) *softHost {
	return &softHost{
		dev:      dev,
		target:   dev.NewTarget(w, h),
		renderer: renderer,
		audio:    audio,
		input:    input,
		mapping:  BuildDefaultMapping(info.Buttons),
		players:  info.Players,
	}
}

// PollInput gives player 1 the keyboard and the first gamepad and player 2
// the second gamepad.
func (h *softHost) PollInput() {
	if h.input == nil {
		return
	}

	gamepadIDs := ebiten.AppendGamepadIDs(nil)
	hasGamepad := len(gamepadIDs) > 0

	var gamepadID ebiten.GamepadID
	if hasGamepad {
		gamepadID = gamepadIDs[0]
	}
	h.input.SetInput(0, PollButtons(h.mapping, gamepadID, hasGamepad))

	if h.players > 1 && len(gamepadIDs) > 1 {
		h.input.SetInput(1, PollGamepadButtons(h.mapping, gamepadIDs[1]))
	}
}

func (h *softHost) CurrentFramebuffer() uint32 {
	return h.target
}

func (h *softHost) PresentFrame(w, hgt int) {
	h.pixels = h.dev.ReadPixels(surface.ConsumerContext, h.target, image.Rect(0, 0, w, hgt), h.pixels[:0])
	h.width, h.height = w, hgt
	h.renderer.Upload(h.pixels, w, hgt)
}

func (h *softHost) DupeFrame() {
	h.dupes++
}

func (h *softHost) AudioBatch(samples []int16, frames int) {
	if h.audio != nil {
		h.audio.Batch(samples, frames)
	}
}

// release deletes the output target.
func (h *softHost) release() {
	if h.target == 0 {
		return
	}
	h.dev.DeleteFramebuffer(surface.ConsumerContext, h.target)
	h.target = 0
}
