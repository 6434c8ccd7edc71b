// mpx/carriers.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mpx

import (
	"math"
	"sync"
)

// SampleRate is the fixed internal MPX composition rate (228 kHz).
const SampleRate = 228000.0

const pilotPhaseLen = 12 // 228000 / 19000
const stereoPhaseLen = 6 // 228000 / 38000

var (
	carrierOnce  sync.Once
	carrier19    [pilotPhaseLen]float64
	carrier38    [stereoPhaseLen]float64
)

// carrierTables builds the cosine lookup tables for the 19 kHz pilot and
// 38 kHz stereo subcarriers, each exactly one integer number of 228 kHz
// samples per cycle so the phase index wraps losslessly.
func carrierTables() ([pilotPhaseLen]float64, [stereoPhaseLen]float64) {
	carrierOnce.Do(func() {
		for i := 0; i < pilotPhaseLen; i++ {
			carrier19[i] = math.Cos(2 * math.Pi * float64(i) / float64(pilotPhaseLen))
		}
		for i := 0; i < stereoPhaseLen; i++ {
			carrier38[i] = math.Cos(2 * math.Pi * float64(i) / float64(stereoPhaseLen))
		}
	})
	return carrier19, carrier38
}
