// mpx/preemphasis.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mpx

import "math"

// preEmphasis is a one-pole high-shelf filter state:
// y[n] = x[n] - x[n-1] + a*y[n-1], a = exp(-1/(tau*fs)).
type preEmphasis struct {
	prevX float64
	prevY float64
}

func preEmphasisCoeff(tau, sampleRate float64) float64 {
	if tau <= 0 {
		return 0
	}
	return math.Exp(-1 / (tau * sampleRate))
}

func (p *preEmphasis) Process(x, a float64) float64 {
	y := x - p.prevX + a*p.prevY
	p.prevX = x
	p.prevY = y
	return y
}
