// Package gldevice implements the bridge's graphics device on OpenGL 3.2
// core. Every method must be called on the thread whose context is current;
// the ContextID arguments only name that context.
package gldevice

import (
	"fmt"
	"image"
	"image/color"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v3.2-core/gl"

	"github.com/user-none/hwbridge/fence"
	"github.com/user-none/hwbridge/logger"
	"github.com/user-none/hwbridge/surface"
)

// Init loads the GL entry points through getProcAddr. It must be called
// with a context current before any other function in the package.
func Init(getProcAddr func(name string) unsafe.Pointer) error {
	if err := gl.InitWithProcAddrFunc(getProcAddr); err != nil {
		return fmt.Errorf("gldevice: %w", err)
	}
	logger.Logf("gl", "version %s, renderer %s",
		gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	return nil
}

// Device is stateless; all state lives in the GL contexts.
type Device struct{}

// New returns a device. Init must have succeeded.
func New() *Device {
	return &Device{}
}

func glError(op string) error {
	if e := gl.GetError(); e != gl.NO_ERROR {
		return fmt.Errorf("gldevice: %s: GL error 0x%04x", op, e)
	}
	return nil
}

func (d *Device) CreateColorTexture(w, h int) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	if tex == 0 {
		return 0
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glError("create texture"); err != nil {
		logger.Log("gl", err.Error())
		gl.DeleteTextures(1, &tex)
		return 0
	}
	return tex
}

func (d *Device) ResizeColorTexture(tex uint32, w, h int) error {
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return glError("resize texture")
}

func (d *Device) DeleteTexture(tex uint32) {
	gl.DeleteTextures(1, &tex)
}

func (d *Device) CreateDepthStencil(w, h int) uint32 {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	if rb == 0 {
		return 0
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, int32(w), int32(h))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	if err := glError("create depth-stencil"); err != nil {
		logger.Log("gl", err.Error())
		gl.DeleteRenderbuffers(1, &rb)
		return 0
	}
	return rb
}

func (d *Device) ResizeDepthStencil(rb uint32, w, h int) error {
	gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, int32(w), int32(h))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	return glError("resize depth-stencil")
}

func (d *Device) DeleteRenderbuffer(rb uint32) {
	gl.DeleteRenderbuffers(1, &rb)
}

func (d *Device) CreateFramebuffer(ctx surface.ContextID, color, depth uint32) uint32 {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	if fb == 0 {
		return 0
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, color, 0)
	if depth != 0 {
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, depth)
	}
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		logger.Logf("gl", "%v framebuffer incomplete: 0x%04x", ctx, status)
		gl.DeleteFramebuffers(1, &fb)
		return 0
	}
	return fb
}

func (d *Device) DeleteFramebuffer(_ surface.ContextID, fb uint32) {
	gl.DeleteFramebuffers(1, &fb)
}

// Blit copies sr of src into dr of dst with linear filtering.
func (d *Device) Blit(src, dst uint32, sr, dr image.Rectangle) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, src)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dst)
	gl.BlitFramebuffer(
		int32(sr.Min.X), int32(sr.Min.Y), int32(sr.Max.X), int32(sr.Max.Y),
		int32(dr.Min.X), int32(dr.Min.Y), int32(dr.Max.X), int32(dr.Max.Y),
		gl.COLOR_BUFFER_BIT, gl.LINEAR)
}

// Cleanup unbinds framebuffers, program and textures so the host finds
// the context the way it left it.
func (d *Device) Cleanup() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.UseProgram(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
}

// Fill clears r of fb to c.
func (d *Device) Fill(fb uint32, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(image.Rect(0, 0, 1<<16, 1<<16))
	if r.Empty() {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()))
	gl.ClearColor(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.Disable(gl.SCISSOR_TEST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (d *Device) FenceSync() fence.Sync {
	return fence.Sync(gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0))
}

func (d *Device) Flush() {
	gl.Flush()
}

func (d *Device) ClientWaitSync(s fence.Sync, timeout time.Duration) fence.WaitResult {
	r := gl.ClientWaitSync(uintptr(s), gl.SYNC_FLUSH_COMMANDS_BIT, uint64(max(timeout, 0)))
	switch r {
	case gl.ALREADY_SIGNALED:
		return fence.AlreadySignaled
	case gl.CONDITION_SATISFIED:
		return fence.ConditionSatisfied
	case gl.TIMEOUT_EXPIRED:
		return fence.TimeoutExpired
	default:
		return fence.WaitFailed
	}
}

func (d *Device) DeleteSync(s fence.Sync) {
	gl.DeleteSync(uintptr(s))
}
