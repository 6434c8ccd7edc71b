// rds/shaper.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rds

// BitBuffer holds one complete 104-bit RDS group and the read cursor into
// it. Bits are drained strictly in order; a new group is produced only
// once the buffer is exhausted.
type BitBuffer struct {
	bits []byte
	pos  int
}

func (b *BitBuffer) exhausted() bool { return b.bits == nil || b.pos >= len(b.bits) }

func (b *BitBuffer) nextBit() byte {
	bit := b.bits[b.pos]
	b.pos++
	return bit
}

// Shaper turns the bit sequence produced by a Generator into a 57 kHz
// biphase-shaped, differentially-encoded sample stream at 228 kHz. It is
// mutated exactly once per tick and is not safe for concurrent use.
type Shaper struct {
	gen *Generator
	buf BitBuffer

	prevOutput byte
	withinBit  int // samples since the last bit fetch, 1..SamplesPerBit; starts at SamplesPerBit

	accum   []float64
	inIdx   int
	outIdx  int
	phase57 int // 0..3
}

// NewShaper builds a Shaper that pulls groups from gen as needed. The
// accumulator is one bit period longer than the pulse shape so a newly
// added pulse never wraps onto a slot that has not yet been read out.
func NewShaper(gen *Generator) *Shaper {
	n := len(biphaseWaveform()) + SamplesPerBit
	return &Shaper{
		gen:       gen,
		withinBit: SamplesPerBit, // force an immediate bit fetch
		accum:     make([]float64, n),
	}
}

// Next advances the shaper by one 228 kHz sample and returns the next RDS
// composite sample, already upconverted to 57 kHz.
func (s *Shaper) Next() float64 {
	if s.withinBit >= SamplesPerBit {
		s.withinBit = 0
		if s.buf.exhausted() {
			s.buf = BitBuffer{bits: s.gen.NextGroup()}
		}
		bit := s.buf.nextBit()

		cur := s.prevOutput ^ bit
		s.prevOutput = cur

		shape := biphaseWaveform()
		n := len(s.accum)
		sign := 1.0
		if cur == 1 {
			sign = -1.0
		}
		for i, v := range shape {
			s.accum[(s.inIdx+i)%n] += sign * v
		}
		s.inIdx = (s.inIdx + SamplesPerBit) % n
	}
	s.withinBit++

	n := len(s.accum)
	sample := s.accum[s.outIdx]
	s.accum[s.outIdx] = 0
	s.outIdx = (s.outIdx + 1) % n

	out := 0.0
	switch s.phase57 {
	case 1:
		out = sample
	case 3:
		out = -sample
	default:
		out = 0
	}
	s.phase57 = (s.phase57 + 1) % 4

	return out
}
