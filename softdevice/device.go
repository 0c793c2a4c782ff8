// Package softdevice is an in-memory graphics device. Textures are RGBA
// images, framebuffers are per-context handle tables and every command
// completes synchronously, so fences are signaled as soon as they exist.
//
// It backs the standalone host and the tests.
package softdevice

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/user-none/hwbridge/fence"
	"github.com/user-none/hwbridge/surface"
)

// Device implements surface.Device, fence.Syncer and pump.Blitter.
type Device struct {
	crit sync.Mutex

	next          uint32
	textures      map[uint32]*image.RGBA
	renderbuffers map[uint32]image.Point
	framebuffers  [2]map[uint32]uint32 // context -> handle -> texture

	nextSync fence.Sync
	syncs    map[fence.Sync]struct{}

	failAlloc bool
	flushes   int
	blits     int
	cleanups  int

	scaler draw.Scaler
}

// New returns an empty device.
func New() *Device {
	d := &Device{
		textures:      make(map[uint32]*image.RGBA),
		renderbuffers: make(map[uint32]image.Point),
		syncs:         make(map[fence.Sync]struct{}),
		scaler:        draw.ApproxBiLinear,
	}
	for i := range d.framebuffers {
		d.framebuffers[i] = make(map[uint32]uint32)
	}
	return d
}

// SetFailAllocations makes every subsequent allocation return a zero
// handle.
func (d *Device) SetFailAllocations(fail bool) {
	d.crit.Lock()
	defer d.crit.Unlock()
	d.failAlloc = fail
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) CreateColorTexture(w, h int) uint32 {
	d.crit.Lock()
	defer d.crit.Unlock()
	if d.failAlloc || w <= 0 || h <= 0 {
		return 0
	}
	t := d.handle()
	d.textures[t] = image.NewRGBA(image.Rect(0, 0, w, h))
	return t
}

// ResizeColorTexture re-specifies the storage. Like glTexImage2D, the old
// contents are not preserved.
func (d *Device) ResizeColorTexture(tex uint32, w, h int) error {
	d.crit.Lock()
	defer d.crit.Unlock()
	if _, ok := d.textures[tex]; !ok {
		return fmt.Errorf("softdevice: no texture %d", tex)
	}
	if d.failAlloc {
		return fmt.Errorf("softdevice: allocation of %dx%d failed", w, h)
	}
	d.textures[tex] = image.NewRGBA(image.Rect(0, 0, w, h))
	return nil
}

func (d *Device) DeleteTexture(tex uint32) {
	d.crit.Lock()
	defer d.crit.Unlock()
	delete(d.textures, tex)
}

func (d *Device) CreateDepthStencil(w, h int) uint32 {
	d.crit.Lock()
	defer d.crit.Unlock()
	if d.failAlloc || w <= 0 || h <= 0 {
		return 0
	}
	rb := d.handle()
	d.renderbuffers[rb] = image.Pt(w, h)
	return rb
}

func (d *Device) ResizeDepthStencil(rb uint32, w, h int) error {
	d.crit.Lock()
	defer d.crit.Unlock()
	if _, ok := d.renderbuffers[rb]; !ok {
		return fmt.Errorf("softdevice: no renderbuffer %d", rb)
	}
	d.renderbuffers[rb] = image.Pt(w, h)
	return nil
}

func (d *Device) DeleteRenderbuffer(rb uint32) {
	d.crit.Lock()
	defer d.crit.Unlock()
	delete(d.renderbuffers, rb)
}

func (d *Device) CreateFramebuffer(ctx surface.ContextID, color, depth uint32) uint32 {
	d.crit.Lock()
	defer d.crit.Unlock()
	if d.failAlloc {
		return 0
	}
	if _, ok := d.textures[color]; !ok {
		return 0
	}
	fb := d.handle()
	d.framebuffers[ctx][fb] = color
	return fb
}

func (d *Device) DeleteFramebuffer(ctx surface.ContextID, fb uint32) {
	d.crit.Lock()
	defer d.crit.Unlock()
	delete(d.framebuffers[ctx], fb)
}

// NewTarget creates a w x h texture with a consumer-context framebuffer
// on it, standing in for the host's output framebuffer.
func (d *Device) NewTarget(w, h int) uint32 {
	tex := d.CreateColorTexture(w, h)
	if tex == 0 {
		return 0
	}
	return d.CreateFramebuffer(surface.ConsumerContext, tex, 0)
}

// Image returns the color attachment of fb on ctx, or nil.
func (d *Device) Image(ctx surface.ContextID, fb uint32) *image.RGBA {
	d.crit.Lock()
	defer d.crit.Unlock()
	return d.image(ctx, fb)
}

func (d *Device) image(ctx surface.ContextID, fb uint32) *image.RGBA {
	tex, ok := d.framebuffers[ctx][fb]
	if !ok {
		return nil
	}
	return d.textures[tex]
}

// ReadPixels appends the RGBA bytes of r of fb on ctx to dst, row by row,
// and returns the extended slice. Pixels outside the attachment are
// skipped.
func (d *Device) ReadPixels(ctx surface.ContextID, fb uint32, r image.Rectangle, dst []byte) []byte {
	d.crit.Lock()
	defer d.crit.Unlock()

	img := d.image(ctx, fb)
	if img == nil {
		return dst
	}
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		dst = append(dst, img.Pix[off:off+4*r.Dx()]...)
	}
	return dst
}

// Fill paints r of the producer framebuffer fb with c.
func (d *Device) Fill(fb uint32, r image.Rectangle, c color.RGBA) {
	d.crit.Lock()
	defer d.crit.Unlock()

	img := d.image(surface.ProducerContext, fb)
	if img == nil {
		return
	}
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// Blit scales sr of the consumer framebuffer src into dr of dst.
func (d *Device) Blit(src, dst uint32, sr, dr image.Rectangle) {
	d.crit.Lock()
	defer d.crit.Unlock()

	s := d.image(surface.ConsumerContext, src)
	t := d.image(surface.ConsumerContext, dst)
	if s == nil || t == nil {
		return
	}
	d.scaler.Scale(t, dr.Intersect(t.Bounds()), s, sr.Intersect(s.Bounds()), draw.Src, nil)
	d.blits++
}

// Cleanup is a no-op; the device keeps no bindings.
func (d *Device) Cleanup() {
	d.crit.Lock()
	d.cleanups++
	d.crit.Unlock()
}

func (d *Device) FenceSync() fence.Sync {
	d.crit.Lock()
	defer d.crit.Unlock()
	d.nextSync++
	d.syncs[d.nextSync] = struct{}{}
	return d.nextSync
}

func (d *Device) Flush() {
	d.crit.Lock()
	d.flushes++
	d.crit.Unlock()
}

// ClientWaitSync reports every live fence as already signaled.
func (d *Device) ClientWaitSync(s fence.Sync, _ time.Duration) fence.WaitResult {
	d.crit.Lock()
	defer d.crit.Unlock()
	if _, ok := d.syncs[s]; !ok {
		return fence.WaitFailed
	}
	return fence.AlreadySignaled
}

func (d *Device) DeleteSync(s fence.Sync) {
	d.crit.Lock()
	defer d.crit.Unlock()
	delete(d.syncs, s)
}

// Stats is a snapshot of live objects and call counts.
type Stats struct {
	Textures      int
	Renderbuffers int
	Framebuffers  [2]int
	Syncs         int
	Flushes       int
	Blits         int
	Cleanups      int
}

// Stats returns the current object counts.
func (d *Device) Stats() Stats {
	d.crit.Lock()
	defer d.crit.Unlock()
	return Stats{
		Textures:      len(d.textures),
		Renderbuffers: len(d.renderbuffers),
		Framebuffers:  [2]int{len(d.framebuffers[0]), len(d.framebuffers[1])},
		Syncs:         len(d.syncs),
		Flushes:       d.flushes,
		Blits:         d.blits,
		Cleanups:      d.cleanups,
	}
}
