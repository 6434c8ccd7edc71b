// mpx/compressor.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mpx

import "math"

// CompressorConfig holds the user-facing compressor parameters.
type CompressorConfig struct {
	Enabled    bool
	ThresholdDB float64
	Ratio      float64
	AttackSec  float64
	ReleaseSec float64
}

// compressorState is the one-pole smoothed gain-in-dB state.
type compressorState struct {
	gainDB float64
}

// Process computes the instantaneous level from mono/stereo samples,
// derives the target gain, smooths it toward that target with the
// attack or release time constant depending on direction, and returns
// the linear gain to apply to both paths this tick.
func (c *compressorState) Process(cfg CompressorConfig, mono, stereo, sampleRate float64) float64 {
	if !cfg.Enabled {
		return 1.0
	}

	level := math.Max(math.Abs(mono), math.Max(math.Abs(stereo), 1e-6))
	levelDB := 20 * math.Log10(level)

	var target float64
	if levelDB > cfg.ThresholdDB {
		target = (cfg.ThresholdDB + (levelDB-cfg.ThresholdDB)/cfg.Ratio) - levelDB
	} else {
		target = 0
	}

	var timeConst float64
	if target < c.gainDB {
		timeConst = cfg.AttackSec
	} else {
		timeConst = cfg.ReleaseSec
	}
	coeff := math.Exp(-1 / (timeConst * sampleRate))
	c.gainDB = target + coeff*(c.gainDB-target)

	return math.Pow(10, c.gainDB/20)
}
