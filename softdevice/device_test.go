package softdevice

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/user-none/hwbridge/fence"
	"github.com/user-none/hwbridge/surface"
)

func TestBlitScalesContent(t *testing.T) {
	d := New()
	m := surface.NewManager(d)

	if err := m.EnsureSize(64, 32); err != nil {
		t.Fatal(err)
	}
	p, ok := m.ProducerFramebuffer()
	if !ok {
		t.Fatal("producer framebuffer not ready")
	}
	red := color.RGBA{R: 255, A: 255}
	d.Fill(p.Handle, p.Content(), red)

	c, ok := m.ConsumerFramebuffer()
	if !ok {
		t.Fatal("consumer framebuffer not ready")
	}
	dst := d.NewTarget(128, 64)
	d.Blit(c.Handle, dst, c.Content(), image.Rect(0, 0, 128, 64))

	img := d.Image(surface.ConsumerContext, dst)
	if img == nil {
		t.Fatal("no image for target")
	}
	for _, pt := range []image.Point{{0, 0}, {64, 32}, {127, 63}} {
		if got := img.RGBAAt(pt.X, pt.Y); got != red {
			t.Errorf("pixel %v = %v, want %v", pt, got, red)
		}
	}
	if d.Stats().Blits != 1 {
		t.Errorf("blits = %d, want 1", d.Stats().Blits)
	}
}

func TestFramebuffersAreContextLocal(t *testing.T) {
	d := New()
	tex := d.CreateColorTexture(8, 8)
	fb := d.CreateFramebuffer(surface.ProducerContext, tex, 0)

	if d.Image(surface.ConsumerContext, fb) != nil {
		t.Error("producer framebuffer visible on the consumer context")
	}
	if d.Image(surface.ProducerContext, fb) == nil {
		t.Error("producer framebuffer missing on its own context")
	}
}

func TestFailAllocations(t *testing.T) {
	d := New()
	d.SetFailAllocations(true)

	if h := d.CreateColorTexture(8, 8); h != 0 {
		t.Errorf("CreateColorTexture() = %d, want 0", h)
	}
	if h := d.CreateDepthStencil(8, 8); h != 0 {
		t.Errorf("CreateDepthStencil() = %d, want 0", h)
	}

	d.SetFailAllocations(false)
	if h := d.CreateColorTexture(8, 8); h == 0 {
		t.Error("CreateColorTexture() = 0 after clearing failure")
	}
}

func TestSyncLifecycle(t *testing.T) {
	d := New()
	s := d.FenceSync()

	if got := d.ClientWaitSync(s, time.Millisecond); got != fence.AlreadySignaled {
		t.Errorf("ClientWaitSync() = %v, want %v", got, fence.AlreadySignaled)
	}
	d.DeleteSync(s)
	if got := d.ClientWaitSync(s, time.Millisecond); got != fence.WaitFailed {
		t.Errorf("ClientWaitSync() on deleted sync = %v, want %v", got, fence.WaitFailed)
	}
	if d.Stats().Syncs != 0 {
		t.Errorf("live syncs = %d, want 0", d.Stats().Syncs)
	}
}

func TestReadPixels(t *testing.T) {
	d := New()
	tex := d.CreateColorTexture(4, 2)
	p := d.CreateFramebuffer(surface.ProducerContext, tex, 0)
	c := d.CreateFramebuffer(surface.ConsumerContext, tex, 0)

	d.Fill(p, image.Rect(1, 0, 2, 2), color.RGBA{R: 10, G: 20, B: 30, A: 255})

	// clipped to the 4x2 attachment
	got := d.ReadPixels(surface.ConsumerContext, c, image.Rect(1, 0, 3, 5), nil)
	want := []byte{
		10, 20, 30, 255, 0, 0, 0, 0,
		10, 20, 30, 255, 0, 0, 0, 0,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}

	if got := d.ReadPixels(surface.ProducerContext, c, image.Rect(0, 0, 4, 2), nil); len(got) != 0 {
		t.Errorf("read %d bytes through a framebuffer of another context", len(got))
	}
}
