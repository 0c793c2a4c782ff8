// Package surface manages a texture shared between a producer and a
// consumer graphics context, and the per-context framebuffers that target
// it.
//
// The texture only ever grows. Every growth bumps the surface generation
// and each context rebuilds its framebuffer the next time it asks for one.
// Framebuffer objects are never shared between contexts.
package surface

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
)

var (
	// ErrNotReady is returned when the surface could not be allocated.
	ErrNotReady = errors.New("surface not ready")

	// ErrInvalidSize is returned for non-positive dimensions.
	ErrInvalidSize = errors.New("invalid surface size")
)

// Surface is an immutable snapshot of the shared surface.
type Surface struct {
	Texture uint32
	Depth   uint32

	// Width and Height are the allocated storage size.
	Width  int
	Height int

	// ContentWidth and ContentHeight are the size most recently requested
	// by the producer. They never exceed the allocated size.
	ContentWidth  int
	ContentHeight int

	Generation uint64
}

// Binding is a context-local framebuffer bound to a surface generation.
type Binding struct {
	Handle     uint32
	Generation uint64

	Width  int
	Height int

	ContentWidth  int
	ContentHeight int
}

// Content returns the rectangle holding the rendered image.
func (b Binding) Content() image.Rectangle {
	return image.Rect(0, 0, b.ContentWidth, b.ContentHeight)
}

// framebuffer is only ever touched from the thread that owns its context.
type framebuffer struct {
	handle     uint32
	generation uint64
}

// Manager owns the shared surface.
type Manager struct {
	dev Device

	// mu serialises allocation against Destroy. It is never taken by the
	// consumer.
	mu         sync.Mutex
	generation uint64
	current    atomic.Pointer[Surface]

	fbs [numContexts]framebuffer
}

// NewManager returns a manager that allocates through dev. Nothing is
// allocated until the first EnsureSize.
func NewManager(dev Device) *Manager {
	return &Manager{dev: dev}
}

// Snapshot returns the current surface, or nil if none is allocated.
func (m *Manager) Snapshot() *Surface {
	return m.current.Load()
}

// EnsureSize makes the surface at least w x h and records w x h as the
// content size. Storage is reallocated in place when either dimension
// grows; the new storage size is the maximum of the old and requested size
// in each dimension. Must be called from the producer context.
func (m *Manager) EnsureSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.current.Load()
	if cur == nil {
		return m.allocate(w, h)
	}

	if w <= cur.Width && h <= cur.Height {
		if w != cur.ContentWidth || h != cur.ContentHeight {
			next := *cur
			next.ContentWidth = w
			next.ContentHeight = h
			m.current.Store(&next)
		}
		return nil
	}

	nw := max(cur.Width, w)
	nh := max(cur.Height, h)

	if err := m.dev.ResizeColorTexture(cur.Texture, nw, nh); err != nil {
		return fmt.Errorf("resizing color texture to %dx%d: %w", nw, nh, err)
	}
	if cur.Depth != 0 {
		if err := m.dev.ResizeDepthStencil(cur.Depth, nw, nh); err != nil {
			return fmt.Errorf("resizing depth-stencil to %dx%d: %w", nw, nh, err)
		}
	}

	m.generation++
	next := *cur
	next.Width = nw
	next.Height = nh
	next.ContentWidth = w
	next.ContentHeight = h
	next.Generation = m.generation
	m.current.Store(&next)
	return nil
}

func (m *Manager) allocate(w, h int) error {
	tex := m.dev.CreateColorTexture(w, h)
	if tex == 0 {
		return fmt.Errorf("%w: color texture %dx%d", ErrNotReady, w, h)
	}
	depth := m.dev.CreateDepthStencil(w, h)
	if depth == 0 {
		m.dev.DeleteTexture(tex)
		return fmt.Errorf("%w: depth-stencil %dx%d", ErrNotReady, w, h)
	}

	m.generation++
	m.current.Store(&Surface{
		Texture:       tex,
		Depth:         depth,
		Width:         w,
		Height:        h,
		ContentWidth:  w,
		ContentHeight: h,
		Generation:    m.generation,
	})
	return nil
}

// ProducerFramebuffer returns the producer's framebuffer for the current
// generation. Must be called from the producer context.
func (m *Manager) ProducerFramebuffer() (Binding, bool) {
	return m.bind(ProducerContext)
}

// ConsumerFramebuffer returns the consumer's framebuffer for the current
// generation, creating it on first use. It returns false when the producer
// has not allocated the surface yet. Must be called from the consumer
// context.
func (m *Manager) ConsumerFramebuffer() (Binding, bool) {
	return m.bind(ConsumerContext)
}

func (m *Manager) bind(ctx ContextID) (Binding, bool) {
	s := m.current.Load()
	if s == nil || s.Texture == 0 {
		return Binding{}, false
	}

	fb := &m.fbs[ctx]
	if fb.handle == 0 || fb.generation != s.Generation {
		if fb.handle != 0 {
			m.dev.DeleteFramebuffer(ctx, fb.handle)
			fb.handle = 0
		}

		// only the producer draws, so only it needs depth
		var depth uint32
		if ctx == ProducerContext {
			depth = s.Depth
		}

		h := m.dev.CreateFramebuffer(ctx, s.Texture, depth)
		if h == 0 {
			return Binding{}, false
		}
		fb.handle = h
		fb.generation = s.Generation
	}

	return Binding{
		Handle:        fb.handle,
		Generation:    s.Generation,
		Width:         s.Width,
		Height:        s.Height,
		ContentWidth:  s.ContentWidth,
		ContentHeight: s.ContentHeight,
	}, true
}

// ReleaseProducer deletes the producer framebuffer. Must be called from the
// producer context.
func (m *Manager) ReleaseProducer() {
	m.release(ProducerContext)
}

// ReleaseConsumer deletes the consumer framebuffer. Must be called from the
// consumer context, typically when that context is being destroyed.
func (m *Manager) ReleaseConsumer() {
	m.release(ConsumerContext)
}

func (m *Manager) release(ctx ContextID) {
	fb := &m.fbs[ctx]
	if fb.handle != 0 {
		m.dev.DeleteFramebuffer(ctx, fb.handle)
	}
	*fb = framebuffer{}
}

// Destroy releases the producer framebuffer and the shared storage. The
// consumer must have called ReleaseConsumer first. Must be called from the
// producer context. A later EnsureSize allocates a fresh surface with a
// newer generation.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.release(ProducerContext)

	s := m.current.Swap(nil)
	if s == nil {
		return
	}
	if s.Depth != 0 {
		m.dev.DeleteRenderbuffer(s.Depth)
	}
	m.dev.DeleteTexture(s.Texture)
}
