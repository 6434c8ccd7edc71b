// driver/filewriter.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package driver implements the offline file writer: a single-threaded
// MPX generator that drives the composer and RDS generator/shaper for a
// fixed duration and writes the result to a 32-bit float mono WAV at
// 228 kHz.
package driver

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/kb9vt/mpxrds/audio"
	"github.com/kb9vt/mpxrds/config"
	"github.com/kb9vt/mpxrds/mpx"
	"github.com/kb9vt/mpxrds/rds"
	"github.com/kb9vt/mpxrds/util"
)

// chunkFrames is the fixed batch size the offline loop composes and
// writes at a time.
const chunkFrames = 2048

// wavAudioFormatIEEEFloat is the WAVE_FORMAT_IEEE_FLOAT tag (3), used for
// the 32-bit float mono output WAV.
const wavAudioFormatIEEEFloat = 3

// ProgressFunc is called after every chunk with the fraction of the
// total run complete, in [0, 1].
type ProgressFunc func(frac float64)

// Run drives the MPX composer at exactly 228 kHz for cfg.DurationSecs
// seconds and writes the composite to cfg.OutputPath as a 32-bit float
// mono WAV. If cfg.AudioPath is set, its decoded content supplies the
// stereo input (looped if shorter than the run); otherwise the input is
// silence. progress may be nil.
func Run(cfg *config.Config, registry *util.TempFileRegistry, progress ProgressFunc) error {
	totalSamples := int(cfg.DurationSecs * mpx.SampleRate)
	if totalSamples <= 0 {
		return fmt.Errorf("driver: duration_secs must produce at least one sample")
	}

	var src *audio.Source
	if cfg.AudioPath != "" {
		var err error
		src, err = audio.Shared().Get(cfg.AudioPath)
		if err != nil {
			return fmt.Errorf("driver: load audio source: %w", err)
		}
	}

	rdsParams := cfg.RDSParams()
	gen := rds.NewGenerator(rdsParams)
	if cfg.PSScrollEnable {
		gen.SetPSScroll(true, cfg.PSScrollText, cfg.PSScrollCPS)
	}
	if cfg.RTScrollEnable {
		gen.SetRTScroll(true, cfg.RTScrollText, cfg.RTScrollCPS)
	}
	shaper := rds.NewShaper(gen)
	inputRate := mpx.SampleRate
	if src != nil {
		inputRate = float64(src.SampleRate)
	}
	composer := mpx.NewState(inputRate)
	mpxCfg := cfg.MPXConfig()
	outCfg := cfg.OutputConfig()

	dir := filepath.Dir(cfg.OutputPath)
	tmp, err := os.CreateTemp(dir, ".mpxrds-*.wav.tmp")
	if err != nil {
		return fmt.Errorf("driver: create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	registry.RegisterPath(tmpPath)
	defer registry.RemoveAllPrefix(tmpPath)

	enc := wav.NewEncoder(tmp, int(mpx.SampleRate), 32, 1, wavAudioFormatIEEEFloat)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: int(mpx.SampleRate)},
		Data:           make([]int, chunkFrames),
		SourceBitDepth: 32,
	}

	// The source is read at its own rate: each frame is held for
	// 228000/src_rate ticks via a fractional phase accumulator, looping
	// once the source runs out.
	written := 0
	srcPos := 0
	srcPhase := 0.0
	srcStep := inputRate / mpx.SampleRate
	for written < totalSamples {
		n := chunkFrames
		if remaining := totalSamples - written; remaining < n {
			n = remaining
		}
		buf.Data = buf.Data[:n]

		for i := 0; i < n; i++ {
			var left, right float64
			if src != nil && src.NumFrames() > 0 {
				srcPhase += srcStep
				for srcPhase >= 1 {
					srcPhase--
					srcPos++
				}
				l, r := src.StereoAt(srcPos % src.NumFrames())
				left, right = float64(l), float64(r)
			}

			gen.Tick()
			rdsSample := shaper.Next()

			sample := composer.Compose(mpxCfg, left, right, rdsSample)
			sample = mpx.ApplyOutputStage(sample, outCfg)
			if outCfg.LimiterEnabled {
				sample = mpx.HardClamp(sample, outCfg.LimiterThreshold)
			}

			buf.Data[i] = int(math.Float32bits(float32(sample)))
		}

		if err := enc.Write(buf); err != nil {
			tmp.Close()
			return fmt.Errorf("driver: write chunk: %w", err)
		}

		written += n
		if progress != nil {
			progress(float64(written) / float64(totalSamples))
		}
	}

	if err := enc.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("driver: finalize wav: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("driver: close temp output: %w", err)
	}

	if err := os.Rename(tmpPath, cfg.OutputPath); err != nil {
		return fmt.Errorf("driver: rename to %q: %w", cfg.OutputPath, err)
	}

	return nil
}
