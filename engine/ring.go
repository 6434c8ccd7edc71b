// engine/ring.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package engine implements the realtime MPX engine: the
// single-producer/single-consumer frame ring between the capture
// callback and the MPX worker, device management, live parameter
// publishing, metering, and xrun diagnostics.
package engine

import "sync/atomic"

// Frame is one stereo PCM sample pair, produced by capture and consumed
// exactly once by the MPX worker.
type Frame struct {
	Left, Right float32
}

// cacheLinePad prevents false sharing between the producer and consumer
// cursors, which live on different cores during steady-state streaming.
type cacheLinePad [64 - 8]byte

// FrameRing is a lock-free single-producer/single-consumer ring buffer
// of Frames, sized to a power of two for fast index masking. Capacity is
// chosen by the caller as roughly 2 seconds of audio at the rate frames
// are pushed and drained.
type FrameRing struct {
	mask uint64
	buf  []Frame

	writeCursor uint64
	_           cacheLinePad
	readCursor  uint64
	_           cacheLinePad

	xrunCount uint64
}

// NewFrameRing builds a ring whose capacity is the next power of two at
// or above size.
func NewFrameRing(size int) *FrameRing {
	cap := nextPow2(size)
	return &FrameRing{
		mask: uint64(cap - 1),
		buf:  make([]Frame, cap),
	}
}

func nextPow2(n int) int {
	if n < 1 {
		n = 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Push is called from the capture callback. On overrun (the ring has no
// free slot because the consumer has fallen behind) it drops the frame
// and increments the xrun count rather than blocking.
func (r *FrameRing) Push(f Frame) {
	w := atomic.LoadUint64(&r.writeCursor)
	rd := atomic.LoadUint64(&r.readCursor)

	if w-rd >= uint64(len(r.buf)) {
		atomic.AddUint64(&r.xrunCount, 1)
		return
	}

	r.buf[w&r.mask] = f
	atomic.StoreUint64(&r.writeCursor, w+1)
}

// Pop is called from the MPX worker, once per 228 kHz tick. On underrun
// (the producer has not kept up) it returns silence and increments the
// xrun count.
func (r *FrameRing) Pop() Frame {
	f, _ := r.PopChecked()
	return f
}

// PopChecked behaves like Pop but also reports whether the ring was
// empty this call (silence substituted), so a caller can track
// consecutive-underrun streaks for diagnostics without double-counting
// the xrun itself.
func (r *FrameRing) PopChecked() (Frame, bool) {
	rd := atomic.LoadUint64(&r.readCursor)
	w := atomic.LoadUint64(&r.writeCursor)

	if rd >= w {
		atomic.AddUint64(&r.xrunCount, 1)
		return Frame{}, true
	}

	f := r.buf[rd&r.mask]
	atomic.StoreUint64(&r.readCursor, rd+1)
	return f, false
}

// Fill reports the ring's occupancy as a fraction in [0, 1].
func (r *FrameRing) Fill() float64 {
	w := atomic.LoadUint64(&r.writeCursor)
	rd := atomic.LoadUint64(&r.readCursor)
	return float64(w-rd) / float64(len(r.buf))
}

// Cap returns the ring's capacity in frames (the power of two chosen at
// construction, not the size requested).
func (r *FrameRing) Cap() int {
	return len(r.buf)
}

// XrunCount returns the cumulative number of dropped/substituted frames.
func (r *FrameRing) XrunCount() uint64 {
	return atomic.LoadUint64(&r.xrunCount)
}
