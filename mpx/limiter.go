// mpx/limiter.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mpx

import "math"

// outputScale is the fixed 0.1 scale applied to every composite sample
// before gain/limiting.
const outputScale = 0.1

// OutputConfig is the output-stage half of the external Config struct.
type OutputConfig struct {
	Gain             float64
	LimiterEnabled   bool
	LimiterThreshold float64
	LimiterLookahead int // samples, clamped to [1, 2048]
}

// ClampLimiterLookahead bounds the lookahead window: 0 clamps to 1,
// values over 2048 clamp to 2048.
func ClampLimiterLookahead(n int) int {
	if n < 1 {
		return 1
	}
	if n > 2048 {
		return 2048
	}
	return n
}

// ClampLimiterThreshold floors the threshold to 0.1.
func ClampLimiterThreshold(th float64) float64 {
	if th < 0.1 {
		return 0.1
	}
	return th
}

// Limiter is a look-ahead peak limiter: it holds the last `lookahead`
// samples in a FIFO and emits the oldest sample scaled down if the
// window's absolute max exceeds the threshold. Until the FIFO first
// fills, it emits silence (priming).
type Limiter struct {
	fifo      []float64
	lookahead int
	threshold float64
	filled    int
	writeIdx  int
}

// NewLimiter builds a Limiter with lookahead and threshold clamped to
// their documented bounds.
func NewLimiter(lookahead int, threshold float64) *Limiter {
	lookahead = ClampLimiterLookahead(lookahead)
	threshold = ClampLimiterThreshold(threshold)
	return &Limiter{
		fifo:      make([]float64, lookahead),
		lookahead: lookahead,
		threshold: threshold,
	}
}

// Lookahead returns the clamped lookahead window size in samples.
func (l *Limiter) Lookahead() int { return l.lookahead }

// Threshold returns the clamped limiting threshold.
func (l *Limiter) Threshold() float64 { return l.threshold }

// Push feeds one new sample and returns the limiter's output for this
// tick (possibly priming silence if the FIFO has not yet filled).
func (l *Limiter) Push(x float64) float64 {
	l.fifo[l.writeIdx] = x
	l.writeIdx = (l.writeIdx + 1) % l.lookahead

	if l.filled < l.lookahead {
		l.filled++
		if l.filled < l.lookahead {
			return 0
		}
	}

	// The slot after the newest sample holds the oldest one in the window.
	front := l.fifo[l.writeIdx]

	max := 0.0
	for _, v := range l.fifo {
		if a := math.Abs(v); a > max {
			max = a
		}
	}

	if max > l.threshold {
		return front * (l.threshold / max)
	}
	return front
}

// HardClamp is the simpler offline-writer limiter substitute: clamp x to
// [-threshold, threshold].
func HardClamp(x, threshold float64) float64 {
	if x > threshold {
		return threshold
	}
	if x < -threshold {
		return -threshold
	}
	return x
}

// ApplyOutputStage scales x by outputScale*gain. This is the shared first
// step of both the realtime (Limiter) and offline (HardClamp) output
// paths.
func ApplyOutputStage(x float64, cfg OutputConfig) float64 {
	return x * outputScale * cfg.Gain
}
