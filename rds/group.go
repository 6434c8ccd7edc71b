// rds/group.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rds

import "time"

// mjdEpoch is 1858-11-17, the Modified Julian Date epoch.
var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// groupBits is the fixed size of one RDS group: 4 blocks x 26 bits.
const groupBits = 4 * 26

// scrollState tracks the rolling-window position for a PS or RT scroll.
type scrollState struct {
	enabled bool
	text    string
	cps     float64
	pos     int
}

func (s *scrollState) window(width int) string {
	padded := s.text + "   "
	if len(padded) == 0 {
		return ""
	}
	n := len(padded)
	pos := s.pos % n
	out := make([]byte, 0, width)
	for i := 0; i < width; i++ {
		out = append(out, padded[(pos+i)%n])
	}
	return string(out)
}

// Generator produces the endless sequence of 104-bit RDS groups and owns
// the PS/RT sub-frame counters, the alternate-PS rotation, the
// periodic/per-minute CT scheduling, and the PS/RT scroll windows.
// Shaper consumes its output one bit at a time.
type Generator struct {
	params *Params

	psState int // 0..3
	rtState int // 0..15
	afPos   int

	cycleIdx int

	psAltCounter int
	psAltIdx     int

	ctCounter int

	sampleTick int64

	psScroll scrollState
	rtScroll scrollState
}

// NewGenerator builds a Generator over the given Params. Params is owned
// by the caller; the generator writes to it only where scroll state
// rewrites PS/RT (see SetPSScroll/SetRTScroll), where the alternate-PS
// rotation rewrites PS, and for its CT minute bookkeeping.
func NewGenerator(p *Params) *Generator {
	return &Generator{params: p}
}

// SetPSScroll enables or disables the scrolling PS window. cps is floored
// to 0.1 characters per second.
func (g *Generator) SetPSScroll(enabled bool, text string, cps float64) {
	if cps < 0.1 {
		cps = 0.1
	}
	g.psScroll = scrollState{enabled: enabled, text: text, cps: cps}
}

// SetRTScroll is the RT analogue of SetPSScroll.
func (g *Generator) SetRTScroll(enabled bool, text string, cps float64) {
	if cps < 0.1 {
		cps = 0.1
	}
	g.rtScroll = scrollState{enabled: enabled, text: text, cps: cps}
}

// Tick advances the sample-tick counter by one 228 kHz sample and
// recomputes the active scroll windows when their interval elapses.
// Scroll recomputation is tied to the sample clock, but always rewrites
// PS/RT through SetPS/SetRT so a group being assembled never observes a
// partial 8- or 64-byte buffer.
func (g *Generator) Tick() {
	g.sampleTick++

	if g.psScroll.enabled {
		interval := int64(228000 / g.psScroll.cps)
		if interval < 1 {
			interval = 1
		}
		if g.sampleTick%interval == 0 {
			w := g.psScroll.window(PSLen)
			g.psScroll.pos++
			g.params.SetPS(w)
		}
	}
	if g.rtScroll.enabled {
		interval := int64(228000 / g.rtScroll.cps)
		if interval < 1 {
			interval = 1
		}
		if g.sampleTick%interval == 0 {
			w := g.rtScroll.window(RTLen)
			g.rtScroll.pos++
			g.params.SetRT(w)
		}
	}
}

// NextGroup picks the next group to send — alternate-PS rotation first,
// then any periodic or per-minute clock-time group, then the round-robin
// cycle — and returns its 104 encoded wire bits (MSB first, block order
// A/B/C/D, 26 bits per block).
func (g *Generator) NextGroup() []byte {
	p := g.params

	if p.PSAltInterval > 0 && len(p.PSAltList) > 0 {
		g.psAltCounter++
		if g.psAltCounter >= p.PSAltInterval {
			g.psAltCounter = 0
			g.psAltIdx = (g.psAltIdx + 1) % len(p.PSAltList)
			p.SetPS(p.PSAltList[g.psAltIdx])
		}
	}

	if p.CTIntervalGroups > 0 {
		g.ctCounter++
		if g.ctCounter >= p.CTIntervalGroups {
			g.ctCounter = 0
			return g.ctGroupBits()
		}
		return g.scheduledGroupBits()
	}

	if p.CTEnabled {
		minute := time.Now().UTC().Minute()
		if minute != p.latestCTMinute {
			p.latestCTMinute = minute
			return g.ctGroupBits()
		}
	}

	return g.scheduledGroupBits()
}

func (g *Generator) scheduledGroupBits() []byte {
	p := g.params
	if len(p.GroupCycle) == 0 {
		p.GroupCycle = []uint8{0}
	}
	kind := p.GroupCycle[g.cycleIdx%len(p.GroupCycle)]
	g.cycleIdx = (g.cycleIdx + 1) % len(p.GroupCycle)

	switch kind {
	case 2:
		return g.group2ABits()
	case 4:
		return g.ctGroupBits()
	default:
		return g.group0ABits()
	}
}

func (g *Generator) group0ABits() []byte {
	p := g.params
	bits := make([]byte, groupBits)

	blockA := p.PI

	diBit := uint16(0)
	if p.DI&(1<<uint(3-g.psState)) != 0 {
		diBit = 1
	}
	blockB := uint16(0)<<12 | b2u16(p.TP)<<10 | uint16(p.PTY)<<5 | b2u16(p.TA)<<4 | b2u16(p.MS)<<3 | diBit<<2 | uint16(g.psState)

	var blockC uint16
	if len(p.afStream) == 0 {
		blockC = uint16(afFillerHi)<<8 | uint16(afFillerLo)
	} else {
		n := len(p.afStream)
		hi := p.afStream[g.afPos%n]
		lo := p.afStream[(g.afPos+1)%n]
		blockC = uint16(hi)<<8 | uint16(lo)
		g.afPos = (g.afPos + 2) % n
	}

	ps := p.PS()
	blockD := uint16(ps[g.psState*2])<<8 | uint16(ps[g.psState*2+1])

	off := 0
	off = appendBlock(bits, off, blockA, 0)
	off = appendBlock(bits, off, blockB, 1)
	off = appendBlock(bits, off, blockC, 2)
	appendBlock(bits, off, blockD, 3)

	g.psState = (g.psState + 1) % 4
	return bits
}

func (g *Generator) group2ABits() []byte {
	p := g.params
	bits := make([]byte, groupBits)

	blockA := p.PI
	blockB := uint16(2)<<12 | b2u16(p.TP)<<10 | uint16(p.PTY)<<5 | b2u16(p.AB)<<4 | uint16(g.rtState)

	rt := p.RT()
	base := g.rtState * 4
	blockC := uint16(rt[base])<<8 | uint16(rt[base+1])
	blockD := uint16(rt[base+2])<<8 | uint16(rt[base+3])

	off := 0
	off = appendBlock(bits, off, blockA, 0)
	off = appendBlock(bits, off, blockB, 1)
	off = appendBlock(bits, off, blockC, 2)
	appendBlock(bits, off, blockD, 3)

	g.rtState = (g.rtState + 1) % 16
	return bits
}

// ctGroupBits packs the current UTC date/time into a type 4A (clock-time)
// group per EN 50067: the 17-bit MJD's top 2 bits ride in block B, the
// remaining 15 bits fill block C down to bit 1, the 5-bit UTC hour is
// split 1 bit (block C) / 4 bits (block D), and block D carries the
// 6-bit minute plus the local offset as half-hour units with a sign bit.
func (g *Generator) ctGroupBits() []byte {
	p := g.params
	bits := make([]byte, groupBits)

	_, offsetSec := time.Now().Zone()
	blockB, blockC, blockD := ctBlocks(p.TP, p.PTY, time.Now().UTC(), offsetSec)

	off := 0
	off = appendBlock(bits, off, p.PI, 0)
	off = appendBlock(bits, off, blockB, 1)
	off = appendBlock(bits, off, blockC, 2)
	appendBlock(bits, off, blockD, 3)

	return bits
}

// ctBlocks packs blocks B, C, and D of a 4A group for the given UTC
// instant and local offset in seconds east of UTC.
func ctBlocks(tp bool, pty uint8, nowUTC time.Time, offsetSec int) (blockB, blockC, blockD uint16) {
	date := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)
	mjd := uint32(date.Sub(mjdEpoch).Hours() / 24)
	hour := uint16(nowUTC.Hour())
	minute := uint16(nowUTC.Minute())

	blockB = uint16(4)<<12 | b2u16(tp)<<10 | uint16(pty)<<5 | uint16(mjd>>15)
	blockC = uint16(mjd<<1) | hour>>4
	blockD = (hour&0xF)<<12 | minute<<6

	halfHours := offsetSec / 1800
	if halfHours < 0 {
		blockD |= 0x20
		halfHours = -halfHours
	}
	blockD |= uint16(halfHours) & 0x1F
	return blockB, blockC, blockD
}

func b2u16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
