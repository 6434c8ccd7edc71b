// rds/params_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rds

import "testing"

func TestSetPSAlwaysEightBytes(t *testing.T) {
	p := DefaultParams()
	p.SetPS("AB")
	ps := p.PS()
	if len(ps) != PSLen {
		t.Fatalf("PS length = %d, want %d", len(ps), PSLen)
	}
	want := [PSLen]byte{'A', 'B', ' ', ' ', ' ', ' ', ' ', ' '}
	if ps != want {
		t.Errorf("PS = %v, want %v", ps, want)
	}
}

func TestSetRTFlipsABOnceWhenAutoAndChanged(t *testing.T) {
	p := DefaultParams()
	p.ABAuto = true
	startAB := p.AB

	p.SetRT("A")
	if p.AB == startAB {
		t.Errorf("AB did not flip after first distinct SetRT with auto-toggle on")
	}
	flipped := p.AB

	p.SetRT("A")
	if p.AB != flipped {
		t.Errorf("AB flipped again on an unchanged SetRT")
	}
}

func TestSetRTNoFlipWithoutAuto(t *testing.T) {
	p := DefaultParams()
	p.ABAuto = false
	startAB := p.AB
	p.SetRT("hello")
	if p.AB != startAB {
		t.Errorf("AB changed despite ABAuto being false")
	}
}

func TestAFListEncodingBoundaries(t *testing.T) {
	p := DefaultParams()
	p.SetAFListMHz([]float64{98.0, 99.8, 98.0, 200.0})
	// 98.0 -> round((98.0-87.6)*10)+1 = round(104)+1 = 105
	// 99.8 -> round((99.8-87.6)*10)+1 = round(122)+1 = 123
	// duplicate 98.0 dropped, 200.0 out of range dropped; the 3-byte
	// result has odd length, so a trailing 0x00 pad is appended.
	want := []byte{0xE2, 105, 123, 0x00}
	if len(p.afStream) != len(want) {
		t.Fatalf("afStream = %v, want %v", p.afStream, want)
	}
	for i := range want {
		if p.afStream[i] != want[i] {
			t.Errorf("afStream[%d] = %d, want %d", i, p.afStream[i], want[i])
		}
	}
}

func TestAFListBoundaryFrequencies(t *testing.T) {
	p := DefaultParams()
	p.SetAFListMHz([]float64{87.6, 107.9, 87.5, 108.0})
	if len(p.afStream) < 3 {
		t.Fatalf("afStream too short: %v", p.afStream)
	}
	n := int(p.afStream[0]) - 0xE0
	if n != 2 {
		t.Fatalf("expected 2 accepted codes (87.6, 107.9), got %d", n)
	}
	if p.afStream[1] != 1 {
		t.Errorf("87.6 MHz should encode to code 1, got %d", p.afStream[1])
	}
	if p.afStream[2] != 204 {
		t.Errorf("107.9 MHz should encode to code 204, got %d", p.afStream[2])
	}
	if len(p.afStream)%2 != 0 {
		t.Errorf("afStream length %d is odd, want even", len(p.afStream))
	}
}

func TestAFListAllInvalidClearsStream(t *testing.T) {
	p := DefaultParams()
	p.SetAFListMHz([]float64{95.5})
	if len(p.afStream) == 0 {
		t.Fatal("valid AF entry produced an empty stream")
	}
	// A list with no valid entries clears the stream entirely so 0A
	// groups fall back to the 0xCDCD filler pair.
	p.SetAFListMHz([]float64{200.0, 50.0})
	if len(p.afStream) != 0 {
		t.Errorf("afStream = %v after all-invalid list, want empty", p.afStream)
	}
}

func TestAFListCodesAreSorted(t *testing.T) {
	p := DefaultParams()
	p.SetAFListMHz([]float64{99.8, 98.0, 105.2})
	n := int(p.afStream[0]) - 0xE0
	if n != 3 {
		t.Fatalf("expected 3 codes, got %d", n)
	}
	for i := 2; i <= n; i++ {
		if p.afStream[i] <= p.afStream[i-1] {
			t.Errorf("codes not ascending: %v", p.afStream[1:1+n])
		}
	}
}

func TestSetGroupMixFloorsZeroTo0AOne(t *testing.T) {
	p := DefaultParams()
	p.SetGroupMix(0, 1, 0)
	if len(p.GroupCycle) == 0 || p.GroupCycle[0] != 0 {
		t.Fatalf("GroupCycle = %v, want at least one 0A entry", p.GroupCycle)
	}
	count0A := 0
	for _, k := range p.GroupCycle {
		if k == 0 {
			count0A++
		}
	}
	if count0A != 1 {
		t.Errorf("0A count = %d, want 1 (floored from 0)", count0A)
	}
}

func TestSyncFromCopiesControllerFieldsNotRuntimeState(t *testing.T) {
	dst := DefaultParams()
	dst.latestCTMinute = 42 // runtime-only bookkeeping, must survive SyncFrom

	src := DefaultParams()
	src.PI = 0x1234
	src.TP = true
	src.PTY = 7
	src.SetPS("KXYZ")
	src.SetRT("hello")
	src.SetAFListMHz([]float64{95.5})
	src.SetGroupMix(2, 1, 1)
	src.CTIntervalGroups = 5
	src.PSAltList = []string{"ALT1", "ALT2"}
	src.PSAltInterval = 3

	dst.SyncFrom(src)

	if dst.PI != src.PI || dst.TP != src.TP || dst.PTY != src.PTY {
		t.Errorf("scalar fields not copied: PI=%v TP=%v PTY=%v", dst.PI, dst.TP, dst.PTY)
	}
	if dst.PS() != src.PS() {
		t.Errorf("PS = %v, want %v", dst.PS(), src.PS())
	}
	if dst.RT() != src.RT() {
		t.Errorf("RT = %v, want %v", dst.RT(), src.RT())
	}
	if len(dst.GroupCycle) != len(src.GroupCycle) {
		t.Errorf("GroupCycle = %v, want %v", dst.GroupCycle, src.GroupCycle)
	}
	if dst.CTIntervalGroups != 5 {
		t.Errorf("CTIntervalGroups = %d, want 5", dst.CTIntervalGroups)
	}
	if dst.PSAltInterval != 3 || len(dst.PSAltList) != 2 {
		t.Errorf("PSAltList/Interval not copied: %v %d", dst.PSAltList, dst.PSAltInterval)
	}
	if dst.latestCTMinute != 42 {
		t.Errorf("latestCTMinute = %d, want unchanged 42 (SyncFrom must not touch runtime-only state)", dst.latestCTMinute)
	}
}

func TestSetGroupMixOmits4AWhenZero(t *testing.T) {
	p := DefaultParams()
	p.SetGroupMix(4, 1, 0)
	for _, k := range p.GroupCycle {
		if k == 4 {
			t.Fatalf("GroupCycle contains 4A entries though n4A was 0: %v", p.GroupCycle)
		}
	}
}
