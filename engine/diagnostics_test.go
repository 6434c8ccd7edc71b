// engine/diagnostics_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package engine

import "testing"

func TestXrunTrackerReportsOnlyAfterThreshold(t *testing.T) {
	tr := newXrunTracker()

	for i := 0; i < xrunStreakThreshold-1; i++ {
		if d := tr.Observe(true); d != nil {
			t.Fatalf("Observe(true) at streak %d reported early: %+v", i+1, d)
		}
	}

	if d := tr.Observe(true); d == nil {
		t.Error("Observe(true) at the threshold should report diagnostics")
	}
}

func TestXrunTrackerReportsOnceThenResets(t *testing.T) {
	tr := newXrunTracker()
	for i := 0; i < xrunStreakThreshold; i++ {
		tr.Observe(true)
	}
	if d := tr.Observe(true); d != nil {
		t.Errorf("Observe(true) past the threshold re-reported: %+v", d)
	}

	tr.Observe(false) // streak breaks
	for i := 0; i < xrunStreakThreshold-1; i++ {
		tr.Observe(true)
	}
	if d := tr.Observe(true); d == nil {
		t.Error("a fresh streak crossing the threshold again should re-report")
	}
}
