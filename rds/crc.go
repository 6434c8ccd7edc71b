// rds/crc.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rds

// crcPoly is the RDS 10-bit CRC generator polynomial (EN 50067 Annex B),
// degree 10: x^10 + x^8 + x^7 + x^5 + x^4 + x^3 + 1.
const crcPoly = 0x1B9
const crcDegree = 10

// offsetWord is the per-block offset word XORed into the checkword,
// indexed by block position A=0, B=1, C=2, D=3.
var offsetWord = [4]uint16{0x0FC, 0x198, 0x168, 0x1B4}

// blockCRC computes the 10-bit CRC of a 16-bit info block using the
// bit-serial LFSR form of the RDS polynomial division: the block is
// extended by crcDegree zero bits into a 26-bit register and reduced in
// 16 steps, MSB first, each step conditionally XORing crcPoly based on
// the register's current top bit.
func blockCRC(info uint16) uint16 {
	reg := uint32(info) << crcDegree
	for bit := 25; bit >= crcDegree; bit-- {
		if reg&(1<<uint(bit)) != 0 {
			reg ^= uint32(crcPoly) << uint(bit-crcDegree)
		}
	}
	return uint16(reg) & ((1 << crcDegree) - 1)
}

// blockCheckword returns the 10-bit checkword for info at the given block
// position (0=A, 1=B, 2=C, 3=D): the block's CRC XORed with that
// position's offset word.
func blockCheckword(info uint16, pos int) uint16 {
	return blockCRC(info) ^ offsetWord[pos]
}

// appendBlock appends the 16 info bits (MSB first) followed by the 10
// checkword bits (MSB first) of one RDS block to bits, starting at
// offset, and returns the new offset.
func appendBlock(bits []byte, offset int, info uint16, pos int) int {
	check := blockCheckword(info, pos)
	for i := 15; i >= 0; i-- {
		bits[offset] = byte((info >> uint(i)) & 1)
		offset++
	}
	for i := crcDegree - 1; i >= 0; i-- {
		bits[offset] = byte((check >> uint(i)) & 1)
		offset++
	}
	return offset
}
