// engine/ring_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package engine

import "testing"

func TestFrameRingPushPop(t *testing.T) {
	r := NewFrameRing(4)
	r.Push(Frame{Left: 1, Right: 2})
	r.Push(Frame{Left: 3, Right: 4})

	if f := r.Pop(); f.Left != 1 || f.Right != 2 {
		t.Errorf("first Pop = %+v, want {1 2}", f)
	}
	if f := r.Pop(); f.Left != 3 || f.Right != 4 {
		t.Errorf("second Pop = %+v, want {3 4}", f)
	}
}

func TestFrameRingUnderrun(t *testing.T) {
	r := NewFrameRing(4)
	f, underrun := r.PopChecked()
	if !underrun {
		t.Error("PopChecked on empty ring should report underrun")
	}
	if f != (Frame{}) {
		t.Errorf("underrun frame = %+v, want zero value", f)
	}
	if got := r.XrunCount(); got != 1 {
		t.Errorf("XrunCount after one underrun = %d, want 1", got)
	}
}

func TestFrameRingOverrun(t *testing.T) {
	r := NewFrameRing(2) // rounds up to 2
	r.Push(Frame{Left: 1})
	r.Push(Frame{Left: 2})
	r.Push(Frame{Left: 3}) // should be dropped, ring full

	if got := r.XrunCount(); got != 1 {
		t.Errorf("XrunCount after overrun = %d, want 1", got)
	}
	if f := r.Pop(); f.Left != 1 {
		t.Errorf("Pop after overrun = %+v, want {Left:1}", f)
	}
}

func TestFrameRingFill(t *testing.T) {
	r := NewFrameRing(4)
	if got := r.Fill(); got != 0 {
		t.Errorf("Fill on empty ring = %v, want 0", got)
	}
	r.Push(Frame{Left: 1})
	r.Push(Frame{Left: 2})
	if got := r.Fill(); got != 0.5 {
		t.Errorf("Fill after two pushes into capacity 4 = %v, want 0.5", got)
	}
}

func TestFrameRingCapRoundsUpToPowerOfTwo(t *testing.T) {
	if got := NewFrameRing(1000).Cap(); got != 1024 {
		t.Errorf("Cap = %d, want 1024", got)
	}
}

func TestNextPow2(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{1000, 1024},
	}
	for _, tc := range tests {
		if got := nextPow2(tc.in); got != tc.want {
			t.Errorf("nextPow2(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
