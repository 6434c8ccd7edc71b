// engine/diagnostics.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package engine

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/kb9vt/mpxrds/log"
)

// Diagnostics is the process telemetry logged when the engine hits an
// xrun storm: process CPU%, goroutine count, and heap bytes.
type Diagnostics struct {
	CPUPercent   float64
	NumGoroutine int
	HeapBytes    uint64
}

// xrunStreakThreshold is the number of consecutive 228 kHz ticks with a
// ring underrun that triggers one diagnostics log. Logging per-xrun
// would flood the log at audio rates.
const xrunStreakThreshold = 8

// xrunTracker counts consecutive ticks that hit a ring underrun and
// reports process diagnostics once per streak crossing the threshold,
// rather than on every individual xrun.
type xrunTracker struct {
	streak  int
	reported bool
	proc    *process.Process
}

func newXrunTracker() *xrunTracker {
	t := &xrunTracker{}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		t.proc = p
	}
	return t
}

// Observe records whether this tick hit an xrun. It returns non-nil
// diagnostics exactly once per streak that crosses xrunStreakThreshold.
func (t *xrunTracker) Observe(hadXrun bool) *Diagnostics {
	if !hadXrun {
		t.streak = 0
		t.reported = false
		return nil
	}
	t.streak++
	if t.streak < xrunStreakThreshold || t.reported {
		return nil
	}
	t.reported = true
	return t.sample()
}

func (t *xrunTracker) sample() *Diagnostics {
	d := &Diagnostics{NumGoroutine: runtime.NumGoroutine()}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	d.HeapBytes = m.HeapAlloc

	if t.proc != nil {
		if pct, err := t.proc.Percent(0); err == nil {
			d.CPUPercent = pct
		}
	} else if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		d.CPUPercent = pct[0]
	}
	return d
}

// logStorm emits the single structured warning for a reported streak.
func logStorm(lg *log.Logger, d *Diagnostics, streak int) {
	lg.Warnf("sustained xrun streak (%d consecutive): cpu=%.1f%% goroutines=%d heap=%dMB",
		streak, d.CPUPercent, d.NumGoroutine, d.HeapBytes/(1024*1024))
}
