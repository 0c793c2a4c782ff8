package surface

// ContextID identifies one of the two graphics contexts that share the
// surface.
type ContextID int

const (
	ProducerContext ContextID = iota
	ConsumerContext

	numContexts
)

func (c ContextID) String() string {
	switch c {
	case ProducerContext:
		return "producer"
	case ConsumerContext:
		return "consumer"
	default:
		return "unknown"
	}
}

// Device is the graphics API the manager allocates through. Texture and
// renderbuffer objects are shareable between the two contexts. Framebuffer
// objects are not, so every framebuffer call names the context it runs on.
//
// A zero handle means the allocation failed.
type Device interface {
	CreateColorTexture(w, h int) uint32
	ResizeColorTexture(tex uint32, w, h int) error
	DeleteTexture(tex uint32)

	CreateDepthStencil(w, h int) uint32
	ResizeDepthStencil(rb uint32, w, h int) error
	DeleteRenderbuffer(rb uint32)

	// CreateFramebuffer creates a framebuffer on ctx with color attached
	// as its color target. depth may be zero.
	CreateFramebuffer(ctx ContextID, color, depth uint32) uint32
	DeleteFramebuffer(ctx ContextID, fb uint32)
}
