// rds/charmap.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rds

import "sync"

// charMap translates a Unicode code point to its 8-bit RDS code-page unit
// (EN 50067 Annex E, G0 table). It is built once behind initCharMap and
// never mutated afterward.
var (
	charMapOnce sync.Once
	charMap     map[rune]byte
)

// charMapTable is the shipped code-point -> RDS byte table. It mirrors the
// RDS G0 basic code table: printable ASCII maps onto itself, and a handful
// of accented Latin letters and special symbols used by European station
// names/radiotext map onto the high half of the table.
var charMapTable = []struct {
	r rune
	b byte
}{
	{0x00E1, 0x80}, {0x00E0, 0x81}, {0x00E9, 0x82}, {0x00E8, 0x83},
	{0x00ED, 0x84}, {0x00EC, 0x85}, {0x00F3, 0x86}, {0x00F2, 0x87},
	{0x00FA, 0x88}, {0x00F9, 0x89}, {0x00D1, 0x8A}, {0x00E7, 0x8B},
	{0x015F, 0x8C}, {0x00DF, 0x8D}, {0x00A1, 0x8E}, {0x0132, 0x8F},
	{0x00E2, 0x90}, {0x00E4, 0x91}, {0x00EA, 0x92}, {0x00EB, 0x93},
	{0x00EE, 0x94}, {0x00EF, 0x95}, {0x00F4, 0x96}, {0x00F6, 0x97},
	{0x00FB, 0x98}, {0x00FC, 0x99}, {0x00F1, 0x9A}, {0x00E5, 0x9D},
	{0x00DC, 0x9E}, {0x00DF, 0x9F}, {0x00C1, 0xA0}, {0x00C0, 0xA1},
	{0x00C9, 0xA2}, {0x00C8, 0xA3}, {0x00CD, 0xA4}, {0x00CC, 0xA5},
	{0x00D3, 0xA6}, {0x00D2, 0xA7}, {0x00DA, 0xA8}, {0x00D9, 0xA9},
	{0x0141, 0xB0}, {0x0142, 0xB1}, {0x03B1, 0xB5}, {0x0391, 0xB6},
	{0x20AC, 0xBC},
}

func initCharMap() {
	charMapOnce.Do(func() {
		m := make(map[rune]byte, 128+len(charMapTable))
		for b := byte(0x20); b < 0x80; b++ {
			m[rune(b)] = b
		}
		for _, e := range charMapTable {
			m[e.r] = e.b
		}
		charMap = m
	})
}

// FillRDSString writes up to len(target) bytes, mapping each rune of input
// through the RDS character table; any code point absent from the table
// becomes 0x20. If input has fewer runes than target, the remainder is
// right-padded with 0x20.
func FillRDSString(target []byte, input string) {
	initCharMap()

	i := 0
	for _, r := range input {
		if i >= len(target) {
			return
		}
		if b, ok := charMap[r]; ok {
			target[i] = b
		} else {
			target[i] = 0x20
		}
		i++
	}
	for ; i < len(target); i++ {
		target[i] = 0x20
	}
}
