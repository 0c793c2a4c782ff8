package audioring

// Ring is a fixed-capacity circular byte store. It is not safe for
// concurrent use; the Decoupler guards it.
//
// Write never overwrites unread data: a write larger than the free space is
// truncated to the free space.
type Ring struct {
	buf  []byte
	r, w int
	used int
}

// NewRing returns a ring holding capacity bytes.
func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]byte, max(capacity, 0))}
}

func (rb *Ring) Cap() int  { return len(rb.buf) }
func (rb *Ring) Used() int { return rb.used }
func (rb *Ring) Free() int { return len(rb.buf) - rb.used }

// Write copies as much of p as fits and returns the number of bytes
// written.
func (rb *Ring) Write(p []byte) int {
	n := min(len(p), rb.Free())
	if n == 0 {
		return 0
	}

	first := min(n, len(rb.buf)-rb.w)
	copy(rb.buf[rb.w:], p[:first])
	copy(rb.buf, p[first:n])

	rb.w = (rb.w + n) % len(rb.buf)
	rb.used += n
	return n
}

// Read copies up to len(p) buffered bytes into p and returns the number of
// bytes read.
func (rb *Ring) Read(p []byte) int {
	n := min(len(p), rb.used)
	if n == 0 {
		return 0
	}

	first := min(n, len(rb.buf)-rb.r)
	copy(p, rb.buf[rb.r:rb.r+first])
	copy(p[first:n], rb.buf)

	rb.r = (rb.r + n) % len(rb.buf)
	rb.used -= n
	return n
}

// Reset discards all buffered data.
func (rb *Ring) Reset() {
	rb.r, rb.w, rb.used = 0, 0, 0
}
