// engine/engine.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kb9vt/mpxrds/audio"
	"github.com/kb9vt/mpxrds/config"
	"github.com/kb9vt/mpxrds/log"
	"github.com/kb9vt/mpxrds/mpx"
	"github.com/kb9vt/mpxrds/platform"
	"github.com/kb9vt/mpxrds/rds"
	"github.com/kb9vt/mpxrds/util"
)

// deviceCaptureRate is the default capture device sample rate; the
// capture-side resampler converts from this rate up to mpx.SampleRate
// regardless of what the actual opened device negotiates.
const deviceCaptureRate = 48000.0

// outputDeviceRate is the fixed playback device rate.
const outputDeviceRate = 192000.0

// ringCapacitySeconds is the target depth of the capture/output frame
// ring, in seconds of engine-rate audio: capture is resampled up to
// mpx.SampleRate before it is pushed, so that is the rate frames are
// stored (and drained) at.
const ringCapacitySeconds = 2.0

// Engine is the realtime MPX+RDS generator: it owns the frame ring
// between capture and the MPX worker, the RDS generator/shaper, the MPX
// composer and output stage, the output resampler, device I/O, and
// metering/diagnostics.
type Engine struct {
	lg *log.Logger

	params *paramStore

	ring *FrameRing

	// genMu guards the Generator's own long-lived state (scroll windows,
	// PS/RT sub-frame counters, CT bookkeeping) which cannot be
	// snapshotted the way MPX/DSP config can, since it accumulates across
	// ticks. The DSP/metadata half instead goes through the lock-free
	// paramStore.
	genMu     sync.Mutex
	genParams *rds.Params
	gen       *rds.Generator
	shaper    *rds.Shaper

	// lastSynced is the snapshot most recently applied to genParams.
	// Each Update publishes a fresh pointer, so identity comparison
	// detects staleness without a version counter; skipping the sync on
	// unchanged snapshots also keeps the generator's own PS/RT rewrites
	// (scroll windows, alternate-PS rotation) intact between controller
	// updates.
	lastSynced *Params

	composer *mpx.State
	limiter  *mpx.Limiter

	outResampler *audio.MonoResampler

	capture *platform.AudioCapture
	output  *platform.AudioOutput

	meter *meter
	xrun  *xrunTracker

	outputChannels int

	fileSource     *audio.Source
	useFileSource  bool

	// running reports whether Start has completed and Stop has not yet
	// been called, checkable without contending with genMu or the
	// errgroup's own teardown bookkeeping.
	running util.AtomicBool

	cancel context.CancelFunc
	eg     *errgroup.Group
}

// New builds an Engine from cfg. It does not open any audio device; call
// Start to begin capture/output.
func New(lg *log.Logger, cfg *config.Config) (*Engine, error) {
	rdsParams := cfg.RDSParams()

	initial := Params{
		MPX:    cfg.MPXConfig(),
		Output: cfg.OutputConfig(),
		RDS:    *rdsParams,
	}

	genParams := cfg.RDSParams()
	gen := rds.NewGenerator(genParams)

	e := &Engine{
		lg:             lg,
		params:         newParamStore(initial),
		ring:           NewFrameRing(int(mpx.SampleRate * ringCapacitySeconds)),
		genParams:      genParams,
		gen:            gen,
		shaper:         rds.NewShaper(gen),
		composer:       mpx.NewState(deviceCaptureRate),
		limiter:        mpx.NewLimiter(initial.Output.LimiterLookahead, initial.Output.LimiterThreshold),
		outResampler:   audio.NewMonoResampler(mpx.SampleRate, outputDeviceRate),
		meter:          newMeter(mpx.SampleRate),
		xrun:           newXrunTracker(),
		outputChannels: 2,
	}

	if cfg.AudioPath != "" {
		src, err := audio.Shared().Get(cfg.AudioPath)
		if err != nil {
			return nil, fmt.Errorf("engine: load audio source: %w", err)
		}
		e.fileSource = src
		e.useFileSource = true
		e.composer = mpx.NewState(float64(src.SampleRate))
	}

	e.capture = platform.NewAudioCapture(lg, e.onCaptureFrames(deviceCaptureRate))
	e.output = platform.NewAudioOutput(lg, e.fillOutputFrame)

	if cfg.PSScrollEnable {
		gen.SetPSScroll(true, cfg.PSScrollText, cfg.PSScrollCPS)
	}
	if cfg.RTScrollEnable {
		gen.SetRTScroll(true, cfg.RTScrollText, cfg.RTScrollCPS)
	}

	return e, nil
}

// onCaptureFrames builds the capture callback: it resamples the
// device-rate interleaved stereo block up to mpx.SampleRate and pushes
// each resulting frame into the ring.
func (e *Engine) onCaptureFrames(deviceRate float64) func([]float32) {
	resampler := audio.NewInputCaptureResampler(deviceRate, mpx.SampleRate)
	return func(samples []float32) {
		resampler.Feed(samples, func(l, r float64) {
			e.ring.Push(Frame{Left: float32(l), Right: float32(r)})
		})
	}
}

// runFileSource loops a decoded audio file in place of live capture,
// pacing itself in chunkFrames-sized bursts and resampling into the
// ring exactly as the device capture path does (the offline driver
// instead reads the source directly, with no ring or pacing).
func (e *Engine) runFileSource(ctx context.Context) error {
	defer e.lg.CatchAndReportCrash()

	const chunkFrames = 1024
	src := e.fileSource
	resampler := audio.NewInputCaptureResampler(float64(src.SampleRate), mpx.SampleRate)
	interval := time.Duration(float64(chunkFrames) / float64(src.SampleRate) * float64(time.Second))
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n := src.NumFrames()
	if n <= 0 {
		<-ctx.Done()
		return nil
	}

	pos := 0
	buf := make([]float32, 0, chunkFrames*2)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			buf = buf[:0]
			for i := 0; i < chunkFrames; i++ {
				l, r := src.StereoAt(pos % n)
				buf = append(buf, l, r)
				pos++
			}
			resampler.Feed(buf, func(l, r float64) {
				e.ring.Push(Frame{Left: float32(l), Right: float32(r)})
			})
		}
	}
}

// fillOutputFrame is called once per output-device channel-frame; it
// pulls (via the output resampler) as many 228 kHz MPX ticks as needed
// to produce the next 192 kHz sample.
func (e *Engine) fillOutputFrame() float32 {
	return float32(e.outResampler.StepOutput(e.nextMPXSample))
}

// nextMPXSample runs one complete 228 kHz tick: sync published
// parameters into the generator, advance the RDS bit shaper, pull one
// audio frame from the ring, compose the MPX sample, apply the output
// stage, and feed the meter. This is the realtime critical path.
func (e *Engine) nextMPXSample() float64 {
	snap := e.params.Load()

	e.genMu.Lock()
	if snap != e.lastSynced {
		e.genParams.SyncFrom(&snap.RDS)
		e.lastSynced = snap
	}
	e.gen.Tick()
	rdsSample := e.shaper.Next()
	e.genMu.Unlock()

	f, underrun := e.ring.PopChecked()

	mpxSample := e.composer.Compose(snap.MPX, float64(f.Left), float64(f.Right), rdsSample)
	scaled := mpx.ApplyOutputStage(mpxSample, snap.Output)

	var out float64
	if snap.Output.LimiterEnabled {
		if e.limiter.Lookahead() != snap.Output.LimiterLookahead ||
			e.limiter.Threshold() != snap.Output.LimiterThreshold {
			e.limiter = mpx.NewLimiter(snap.Output.LimiterLookahead, snap.Output.LimiterThreshold)
		}
		out = e.limiter.Push(scaled)
	} else {
		out = scaled
	}

	e.meter.FeedCallbackSample(out, 0, 1)

	if d := e.xrun.Observe(underrun); d != nil {
		logStorm(e.lg, d, xrunStreakThreshold)
	}

	return out
}

// Start opens the configured output device (and, if inputDevice is
// non-empty or a file source was configured, the input side) and begins
// streaming. Capture, output, and teardown are coordinated through ctx
// and an errgroup: cancelling ctx (or calling Stop) tears down every
// stream synchronously.
func (e *Engine) Start(ctx context.Context, inputDevice, outputDevice string) error {
	ctx, cancel := context.WithCancel(ctx)
	eg, ctx := errgroup.WithContext(ctx)
	e.cancel = cancel
	e.eg = eg

	if inputDevice != "" {
		if err := e.capture.Start(inputDevice, int(deviceCaptureRate), 2); err != nil {
			cancel()
			return fmt.Errorf("engine: start capture: %w", err)
		}
		eg.Go(func() error {
			<-ctx.Done()
			e.capture.Stop()
			return nil
		})
	} else if e.useFileSource {
		eg.Go(func() error { return e.runFileSource(ctx) })
	}

	if err := e.output.Start(outputDevice, int(outputDeviceRate), e.outputChannels); err != nil {
		cancel()
		return fmt.Errorf("engine: start output: %w", err)
	}
	eg.Go(func() error {
		<-ctx.Done()
		e.output.Stop()
		return nil
	})

	e.running.Store(true)
	return nil
}

// Stop tears down every realtime stream and blocks until all of them
// have finished; any in-flight callback completes before it returns.
func (e *Engine) Stop() error {
	if e.cancel != nil {
		e.cancel()
	}
	var err error
	if e.eg != nil {
		err = e.eg.Wait()
	}
	e.running.Store(false)
	return err
}

// Running reports whether the engine is between a successful Start and
// the matching Stop. Safe to call from any goroutine.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Snapshot returns the current meter telemetry, augmented with ring
// fill and xrun count (which the meter itself does not track). Latency
// is estimated from the limiter's lookahead window plus the current
// ring depth.
func (e *Engine) Snapshot() MeterSnapshot {
	snap := e.params.Load()
	lookaheadMS := float64(snap.Output.LimiterLookahead) / mpx.SampleRate * 1000.0
	// Buffered frames drain at the engine rate, so the ring's
	// contribution is its occupancy over its actual (power-of-two)
	// capacity, converted to time at mpx.SampleRate.
	ringMS := e.ring.Fill() * float64(e.ring.Cap()) / mpx.SampleRate * 1000.0
	return e.meter.Snapshot(e.ring.XrunCount(), e.ring.Fill(), lookaheadMS+ringMS)
}

///////////////////////////////////////////////////////////////////////////
// Live parameter setters. Scalar/DSP fields go through the lock-free
// paramStore; scroll configuration is generator-owned state and is
// applied directly under genMu.

func (e *Engine) SetPS(s string) error {
	return e.params.Update(func(p *Params) { p.RDS.SetPS(s) })
}

func (e *Engine) SetRT(s string) error {
	return e.params.Update(func(p *Params) { p.RDS.SetRT(s) })
}

func (e *Engine) SetPI(pi uint16) error {
	return e.params.Update(func(p *Params) { p.RDS.PI = pi })
}

func (e *Engine) SetFlags(tp, ta, ms bool, pty, di uint8) error {
	return e.params.Update(func(p *Params) {
		p.RDS.TP = tp
		p.RDS.TA = ta
		p.RDS.MS = ms
		p.RDS.PTY = pty
		p.RDS.DI = di
	})
}

func (e *Engine) SetABAuto(auto bool) error {
	return e.params.Update(func(p *Params) { p.RDS.ABAuto = auto })
}

func (e *Engine) SetCTEnabled(enabled bool) error {
	return e.params.Update(func(p *Params) { p.RDS.CTEnabled = enabled })
}

func (e *Engine) SetCTIntervalGroups(n int) error {
	return e.params.Update(func(p *Params) { p.RDS.CTIntervalGroups = n })
}

func (e *Engine) SetAFListMHz(freqsMHz []float64) error {
	return e.params.Update(func(p *Params) { p.RDS.SetAFListMHz(freqsMHz) })
}

func (e *Engine) SetGroupMix(n0A, n2A, n4A int) error {
	return e.params.Update(func(p *Params) { p.RDS.SetGroupMix(n0A, n2A, n4A) })
}

func (e *Engine) SetPSAlt(list []string, interval int) error {
	return e.params.Update(func(p *Params) {
		p.RDS.PSAltList = list
		p.RDS.PSAltInterval = interval
	})
}

func (e *Engine) SetPSScroll(enabled bool, text string, cps float64) {
	e.genMu.Lock()
	defer e.genMu.Unlock()
	e.gen.SetPSScroll(enabled, text, cps)
}

func (e *Engine) SetRTScroll(enabled bool, text string, cps float64) {
	e.genMu.Lock()
	defer e.genMu.Unlock()
	e.gen.SetRTScroll(enabled, text, cps)
}

func (e *Engine) SetPilotLevel(v float64) error {
	return e.params.Update(func(p *Params) { p.MPX.PilotLevel = v })
}

func (e *Engine) SetRDSLevel(v float64) error {
	return e.params.Update(func(p *Params) { p.MPX.RDSLevel = v })
}

func (e *Engine) SetStereoSeparation(v float64) error {
	return e.params.Update(func(p *Params) { p.MPX.StereoSeparation = v })
}

func (e *Engine) SetPreemphasisTau(tau float64) error {
	return e.params.Update(func(p *Params) { p.MPX.PreemphasisTau = tau })
}

func (e *Engine) SetCompressor(cfg mpx.CompressorConfig) error {
	return e.params.Update(func(p *Params) { p.MPX.Compressor = cfg })
}

func (e *Engine) SetOutputGain(gain float64) error {
	return e.params.Update(func(p *Params) { p.Output.Gain = gain })
}

func (e *Engine) SetLimiter(enabled bool, threshold float64, lookahead int) error {
	return e.params.Update(func(p *Params) {
		p.Output.LimiterEnabled = enabled
		p.Output.LimiterThreshold = mpx.ClampLimiterThreshold(threshold)
		p.Output.LimiterLookahead = mpx.ClampLimiterLookahead(lookahead)
	})
}
