// mpx/composer.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package mpx implements the stereo multiplex composer and the
// look-ahead limiter / output stage: FIR band-limiting, optional
// pre-emphasis and compression, and the final 19/38/57 kHz composite
// sum.
package mpx

// composeConstant normalizes against the +-1 peak of the pilot+subcarriers
// so the composite stays within nominal deviation after output scaling.
const composeConstant = 4.05

// Config is the DSP-facing half of the composer's settings: everything
// that is not RDS metadata.
type Config struct {
	PilotLevel       float64
	RDSLevel         float64
	StereoSeparation float64
	PreemphasisTau   float64 // seconds; 0 disables pre-emphasis
	Compressor       CompressorConfig
}

// State holds the composer's FIR delay lines, carrier phase indices,
// pre-emphasis and compressor state. It is exclusively owned by one
// caller and mutated once per 228 kHz tick.
type State struct {
	monoFIR   *firLine
	stereoFIR *firLine

	monoPre   preEmphasis
	stereoPre preEmphasis

	comp compressorState

	phase19 int
	phase38 int

	inputSampleRate float64
}

// NewState builds composer state for audio arriving at inputSampleRate
// (the rate frames are produced at before any resampling to 228 kHz). A
// source whose Nyquist sits below the nominal 15 kHz cutoff narrows the
// FIR kernel so it never specifies a passband above what the source can
// carry.
func NewState(inputSampleRate float64) *State {
	if inputSampleRate <= 0 {
		inputSampleRate = SampleRate
	}
	cutoff := 15000 * 0.8
	if inputSampleRate/2 < 15000 {
		cutoff = (inputSampleRate / 2) * 0.8
	}
	return &State{
		monoFIR:         newFIRLine(SampleRate, cutoff),
		stereoFIR:       newFIRLine(SampleRate, cutoff),
		inputSampleRate: inputSampleRate,
	}
}

// Compose runs one 228 kHz tick: given a stereo sample pair and the
// current RDS composite sample, returns the combined MPX sample.
func (s *State) Compose(cfg Config, left, right, rdsSample float64) float64 {
	mono := left + right
	stereo := left - right

	mono = s.monoFIR.Push(mono)
	stereo = s.stereoFIR.Push(stereo)

	if cfg.PreemphasisTau > 0 {
		a := preEmphasisCoeff(cfg.PreemphasisTau, SampleRate)
		mono = s.monoPre.Process(mono, a)
		stereo = s.stereoPre.Process(stereo, a)
	}

	gain := s.comp.Process(cfg.Compressor, mono, stereo, SampleRate)
	mono *= gain
	stereo *= gain

	c19, c38 := carrierTables()

	out := cfg.RDSLevel*rdsSample +
		composeConstant*mono +
		composeConstant*cfg.StereoSeparation*c38[s.phase38]*stereo +
		cfg.PilotLevel*c19[s.phase19]

	s.phase19 = (s.phase19 + 1) % pilotPhaseLen
	s.phase38 = (s.phase38 + 1) % stereoPhaseLen

	return out
}
