// rds/waveform.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rds

import (
	"math"
	"sync"
)

// SamplesPerBit is the number of 228 kHz samples spanned by one RDS bit
// at 1187.5 bits/s (228000 / 1187.5 == 192).
const SamplesPerBit = 192

// biphaseSpanBits is the number of bit periods the pulse shape spans.
// The root-Nyquist filter's tails extend well past one bit; the shaper's
// overlap-add accumulator sums the contributions of neighboring bits.
const biphaseSpanBits = 4

var (
	biphaseOnce sync.Once
	biphase     []float64
)

// biphaseWaveform returns the precomputed biphase pulse shape used by the
// bit-to-sample shaper: two opposite-sign root-raised-cosine pulses
// (100% rolloff, EN 50067's cosine data shaping) half a bit period
// apart, which together form the Manchester-like transition each RDS bit
// is line-coded as. Computed once, peak-normalized, immutable afterward.
func biphaseWaveform() []float64 {
	biphaseOnce.Do(func() {
		n := biphaseSpanBits * SamplesPerBit
		w := make([]float64, n)
		peak := 0.0
		for i := 0; i < n; i++ {
			t := float64(i-n/2) / float64(SamplesPerBit)
			w[i] = rootRaisedCosine(t+0.25) - rootRaisedCosine(t-0.25)
			if a := math.Abs(w[i]); a > peak {
				peak = a
			}
		}
		for i := range w {
			w[i] /= peak
		}
		biphase = w
	})
	return biphase
}

// rootRaisedCosine evaluates the unit-energy root-raised-cosine impulse
// response with rolloff 1 at time t in symbol periods, handling the
// removable singularities at t = 0 and |t| = 1/4.
func rootRaisedCosine(t float64) float64 {
	const beta = 1.0
	if t == 0 {
		return 1 + beta*(4/math.Pi-1)
	}
	if math.Abs(math.Abs(t)-1/(4*beta)) < 1e-9 {
		s, c := math.Sincos(math.Pi / (4 * beta))
		return beta / math.Sqrt2 * ((1+2/math.Pi)*s + (1-2/math.Pi)*c)
	}
	num := math.Sin(math.Pi*t*(1-beta)) + 4*beta*t*math.Cos(math.Pi*t*(1+beta))
	den := math.Pi * t * (1 - 16*beta*beta*t*t)
	return num / den
}
