// mpx/composer_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mpx

import (
	"math"
	"testing"
)

func TestFIRKernelClampsCutoffToNyquist(t *testing.T) {
	k := firKernel(8000, 15000*0.8) // nyquist only 4000 Hz, well below cutoff
	var sum float64
	for _, v := range k {
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("kernel DC gain = %v, want ~1", sum)
	}
	clamped := firKernel(8000, 4000*0.8)
	for i := range k {
		if math.Abs(k[i]-clamped[i]) > 1e-12 {
			t.Fatalf("tap %d = %v, want %v (cutoff clamped to 0.8 x Nyquist)", i, k[i], clamped[i])
		}
	}
}

func TestComposerSilenceProducesPilotAndRDSOnly(t *testing.T) {
	s := NewState(SampleRate)
	cfg := Config{PilotLevel: 0.9, RDSLevel: 1.0, StereoSeparation: 1.0}

	var maxAbs float64
	for i := 0; i < 100; i++ {
		out := s.Compose(cfg, 0, 0, 0)
		if a := math.Abs(out); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs <= 0 {
		t.Errorf("expected nonzero pilot-only output, got max abs %v", maxAbs)
	}
	if maxAbs > 1.0 {
		t.Errorf("pilot-only output should stay near +-0.9, got max abs %v", maxAbs)
	}
}

func TestCompressorDisabledUnityGain(t *testing.T) {
	var c compressorState
	g := c.Process(CompressorConfig{Enabled: false}, 0.9, 0.1, SampleRate)
	if g != 1.0 {
		t.Errorf("disabled compressor gain = %v, want 1.0", g)
	}
}

func TestCompressorReducesGainAboveThreshold(t *testing.T) {
	var c compressorState
	cfg := CompressorConfig{Enabled: true, ThresholdDB: -10, Ratio: 4, AttackSec: 0.001, ReleaseSec: 0.1}
	var g float64
	for i := 0; i < 1000; i++ {
		g = c.Process(cfg, 0.99, 0, SampleRate)
	}
	if g >= 1.0 {
		t.Errorf("gain = %v, want < 1.0 once compressor settles above threshold", g)
	}
}
