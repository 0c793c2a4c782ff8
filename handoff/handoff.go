// Package handoff decides, once per pump cycle, whether the producer has
// finished a frame the consumer has not presented yet.
package handoff

import "sync/atomic"

// Handoff holds the producer frame counter and the consumer's
// last-presented counter. The producer only calls MarkReady; the consumer
// calls the rest.
type Handoff struct {
	frames    atomic.Uint64
	presented atomic.Uint64
}

// MarkReady records one completed frame.
func (h *Handoff) MarkReady() {
	h.frames.Add(1)
}

// HasNewFrame reports whether a frame newer than the last presented one
// exists.
func (h *Handoff) HasNewFrame() bool {
	_, ok := h.NewFrame()
	return ok
}

// NewFrame returns the newest completed frame number and whether it is
// newer than the last presented one. The consumer passes the number to
// MarkPresented once that frame is on screen.
func (h *Handoff) NewFrame() (uint64, bool) {
	n := h.frames.Load()
	return n, n > h.presented.Load()
}

// MarkPresented catches the presented counter up to frame n, the value
// NewFrame returned before the frame was copied. Frames between the last
// presented one and n are dropped, not queued; frames completed after n
// stay pending. It returns the number of frames that were skipped.
func (h *Handoff) MarkPresented(n uint64) uint64 {
	for {
		p := h.presented.Load()
		if p >= n {
			return 0
		}
		if h.presented.CompareAndSwap(p, n) {
			return n - p - 1
		}
	}
}

// Counters returns the frame and presented counters.
func (h *Handoff) Counters() (frames, presented uint64) {
	// presented first so the pair never shows presented > frames
	presented = h.presented.Load()
	frames = h.frames.Load()
	return
}

// Reset zeroes both counters. Neither side may be running.
func (h *Handoff) Reset() {
	h.presented.Store(0)
	h.frames.Store(0)
}

// SwapsPerFrame is the number of producer buffer swaps that make up one
// displayed frame. The producer emulates a front and back buffer and swaps
// both for every frame it displays.
const SwapsPerFrame = 2

// FlipCollapser turns producer buffer swaps into frame-ready notifications,
// one per SwapsPerFrame swaps. It must only be used from the producer
// thread.
type FlipCollapser struct {
	h     *Handoff
	flips uint64
}

// NewFlipCollapser returns a collapser feeding h.
func NewFlipCollapser(h *Handoff) *FlipCollapser {
	return &FlipCollapser{h: h}
}

// Flip records one buffer swap and reports whether it completed a frame.
func (c *FlipCollapser) Flip() bool {
	c.flips++
	if c.flips%SwapsPerFrame != 0 {
		return false
	}
	c.h.MarkReady()
	return true
}

// Reset forgets any half-completed frame.
func (c *FlipCollapser) Reset() {
	c.flips = 0
}
