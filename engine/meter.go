// engine/meter.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package engine

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/mjibson/go-dsp/fft"
)

const (
	fftWindow    = 1024
	spectrumBins = 256
	numBands     = 48
	scopeCap     = 2048
)

// MeterSnapshot is the instantaneous engine telemetry: RMS, peak,
// pilot/RDS bin level, band spectrum, a scope buffer, and
// xrun/ring-fill/latency figures.
type MeterSnapshot struct {
	RMS           float64
	Peak          float64
	PilotLevel    float64
	RDSLevel      float64
	BandsDB       [numBands]float64
	Instant       [spectrumBins]float64
	PeakHold      [spectrumBins]float64
	Averaged      [spectrumBins]float64
	Scope         []float32
	XrunCount     uint64
	RingFill      float64
	OutputLatency float64 // milliseconds
}

// meter accumulates per-callback RMS/peak, a scope ring, and an FFT tap
// feeding the 48-band and 256-bin spectra. It is written from the
// realtime output callback and read by the controller through an
// atomically published snapshot, so readers never block the callback.
type meter struct {
	sampleRate float64

	fftBuf [fftWindow]float64
	fftPos int
	window [fftWindow]float64

	peakHold [spectrumBins]float64
	averaged [spectrumBins]float64

	scopeMu sync.Mutex
	scope   []float32
	scopeN  int

	sumSquares float64
	peak       float64
	nSamples   int

	published atomic.Pointer[MeterSnapshot]
}

func newMeter(sampleRate float64) *meter {
	m := &meter{sampleRate: sampleRate, scope: make([]float32, scopeCap)}
	for i := range m.window {
		m.window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftWindow-1))
	}
	m.published.Store(&MeterSnapshot{})
	return m
}

// FeedCallbackSample accumulates one MPX sample's contribution to the
// current output callback's RMS/peak figures and to the scope ring
// (every Nth sample, N = output channel count).
func (m *meter) FeedCallbackSample(sample float64, channelIndex, channels int) {
	m.sumSquares += sample * sample
	if a := math.Abs(sample); a > m.peak {
		m.peak = a
	}
	m.nSamples++

	if channelIndex == 0 {
		m.scopeMu.Lock()
		m.scope[m.scopeN%scopeCap] = float32(sample)
		m.scopeN++
		m.scopeMu.Unlock()
	}

	m.feedFFT(sample)
}

func (m *meter) feedFFT(sample float64) {
	m.fftBuf[m.fftPos] = sample
	m.fftPos++
	if m.fftPos < fftWindow {
		return
	}
	m.fftPos = 0
	m.runFFT()
}

func (m *meter) runFFT() {
	windowed := make([]float64, fftWindow)
	for i, v := range m.fftBuf {
		windowed[i] = v * m.window[i]
	}

	spectrum := fft.FFTReal(windowed)

	mags := make([]float64, fftWindow/2)
	for i := range mags {
		mags[i] = cmplxAbs(spectrum[i])
	}

	instant := [spectrumBins]float64{}
	binHz := m.sampleRate / fftWindow
	for i := 0; i < spectrumBins; i++ {
		srcIdx := i * len(mags) / spectrumBins
		instant[i] = toDB(mags[srcIdx])
		if instant[i] > m.peakHold[i] {
			m.peakHold[i] = instant[i]
		}
		m.averaged[i] = 0.9*m.averaged[i] + 0.1*instant[i]
	}

	var bands [numBands]float64
	nyquist := m.sampleRate / 2
	for b := 0; b < numBands; b++ {
		loHz := nyquist * math.Pow(float64(b)/numBands, 2)
		hiHz := nyquist * math.Pow(float64(b+1)/numBands, 2)
		maxDB := -200.0
		for i, mag := range mags {
			hz := float64(i) * binHz
			if hz >= loHz && hz < hiHz {
				if db := toDB(mag); db > maxDB {
					maxDB = db
				}
			}
		}
		bands[b] = maxDB
	}

	pilotBin := int(19000 / binHz)
	rdsBin := int(57000 / binHz)
	pilotLevel := unitLevel(mags, pilotBin)
	rdsLevel := unitLevel(mags, rdsBin)

	snap := &MeterSnapshot{
		RMS:           math.Sqrt(m.sumSquares / math.Max(1, float64(m.nSamples))),
		Peak:          m.peak,
		PilotLevel:    pilotLevel,
		RDSLevel:      rdsLevel,
		BandsDB:       bands,
		Instant:       instant,
		PeakHold:      m.peakHold,
		Averaged:      m.averaged,
		XrunCount:     0,
		RingFill:      0,
		OutputLatency: 0,
	}
	m.scopeMu.Lock()
	snap.Scope = append([]float32(nil), m.scope...)
	m.scopeMu.Unlock()

	m.published.Store(snap)
	m.sumSquares = 0
	m.peak = 0
	m.nSamples = 0
}

func unitLevel(mags []float64, bin int) float64 {
	if bin < 0 || bin >= len(mags) {
		return 0
	}
	peak := 0.0
	for _, v := range mags {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return 0
	}
	return mags[bin] / peak
}

func toDB(mag float64) float64 {
	if mag <= 1e-12 {
		return -240
	}
	return 20 * math.Log10(mag)
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// Snapshot returns the most recently published telemetry, augmented with
// the caller-supplied xrun count, ring fill, and output latency (which
// the meter itself does not track).
func (m *meter) Snapshot(xruns uint64, ringFill, latencyMS float64) MeterSnapshot {
	s := *m.published.Load()
	s.XrunCount = xruns
	s.RingFill = ringFill
	s.OutputLatency = latencyMS
	return s
}
