// rds/charmap_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rds

import (
	"math"
	"testing"
)

func TestFillRDSStringPadsAndSubstitutes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"short pads with space", "AB", 8, "AB      "},
		{"exact fit", "ABCDEFGH", 8, "ABCDEFGH"},
		{"truncates", "ABCDEFGHIJ", 8, "ABCDEFGH"},
		{"unmapped rune becomes space", "AঙB", 3, "A B"},
		{"empty input is all spaces", "", 4, "    "},
	}
	for _, tc := range tests {
		buf := make([]byte, tc.width)
		FillRDSString(buf, tc.input)
		if string(buf) != tc.want {
			t.Errorf("%s: FillRDSString(%q) = %q, want %q", tc.name, tc.input, string(buf), tc.want)
		}
	}
}

func TestBiphaseWaveformShape(t *testing.T) {
	w := biphaseWaveform()
	if len(w) != biphaseSpanBits*SamplesPerBit {
		t.Fatalf("biphase waveform length = %d, want %d", len(w), biphaseSpanBits*SamplesPerBit)
	}

	peak := 0.0
	for _, v := range w {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if math.Abs(peak-1) > 1e-9 {
		t.Errorf("waveform peak = %v, want normalized to 1", peak)
	}

	// The two opposite-sign pulses a half bit apart make the shape odd
	// about its center, so it integrates to ~0 (no DC on the subcarrier).
	var sum float64
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum) > 1e-6*float64(len(w)) {
		t.Errorf("waveform sum = %v, want ~0", sum)
	}
}
