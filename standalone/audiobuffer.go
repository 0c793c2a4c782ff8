//go:build !libretro

package standalone

import (
	"io"
	"sync"
)

// AudioRingBuffer is the io.Reader oto's player pulls from. Writes never
// block; when the buffer is full the oldest bytes are dropped. Reads block
// until data arrives or the buffer is closed.
type AudioRingBuffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	buf      []byte
	readPos  int
	writePos int
	count    int
	closed   bool
}

// NewAudioRingBuffer creates a ring buffer holding capacity bytes.
func NewAudioRingBuffer(capacity int) *AudioRingBuffer {
	rb := &AudioRingBuffer{buf: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write appends p, overwriting the oldest data on overflow. Writes after
// Close are ignored.
func (rb *AudioRingBuffer) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed || len(rb.buf) == 0 {
		return
	}

	// only the newest capacity bytes can survive
	if len(p) > len(rb.buf) {
		p = p[len(p)-len(rb.buf):]
	}

	if over := rb.count + len(p) - len(rb.buf); over > 0 {
		rb.readPos = (rb.readPos + over) % len(rb.buf)
		rb.count -= over
	}

	n := copy(rb.buf[rb.writePos:], p)
	copy(rb.buf, p[n:])
	rb.writePos = (rb.writePos + len(p)) % len(rb.buf)
	rb.count += len(p)

	rb.cond.Signal()
}

// Read implements io.Reader. It returns io.EOF once the buffer is closed
// and drained.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 && !rb.closed {
		rb.cond.Wait()
	}
	if rb.count == 0 {
		return 0, io.EOF
	}

	n := min(len(p), rb.count)
	first := min(n, len(rb.buf)-rb.readPos)
	copy(p, rb.buf[rb.readPos:rb.readPos+first])
	copy(p[first:n], rb.buf)
	rb.readPos = (rb.readPos + n) % len(rb.buf)
	rb.count -= n

	return n, nil
}

// Buffered returns the number of bytes waiting to be read.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Clear discards all buffered data.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.readPos, rb.writePos, rb.count = 0, 0, 0
}

// Close wakes any blocked reader. Remaining data can still be read.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}
