// audio/source.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package audio implements the audio source loaders and resamplers:
// WAV/MP3 decoding into Source, a decode cache, and the linear
// input/output resamplers.
package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/go-audio/wav"
	"github.com/tosone/minimp3"
)

// wavAudioFormatIEEEFloat is the WAVE_FORMAT_IEEE_FLOAT tag (3), used to
// tell a float32 WAV apart from integer PCM while decoding.
const wavAudioFormatIEEEFloat = 3

// Source is a decoded audio clip, immutable after construction:
// interleaved float PCM plus sample rate and channel count.
type Source struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Load opens path and decodes it into a Source. The format is chosen by
// file extension: ".mp3" decodes through minimp3; anything else is
// treated as RIFF/WAVE.
func Load(path string) (*Source, error) {
	if strings.EqualFold(trimExt(path), "mp3") {
		return loadMP3(path)
	}
	return loadWAV(path)
}

func trimExt(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i+1:]
}

// loadWAV decodes a RIFF/WAVE file: float32 samples are taken directly;
// integer PCM is normalized to [-1, 1] by dividing by the format's signed
// peak magnitude.
func loadWAV(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %q: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("audio: %q is not a valid WAV file", path)
	}

	channels := int(dec.NumChans)
	if channels == 0 {
		return nil, fmt.Errorf("audio: %q has an invalid channel count", path)
	}
	bits := int(dec.BitDepth)
	sampleRate := int(dec.SampleRate)
	isFloat := dec.WavAudioFormat == wavAudioFormatIEEEFloat

	fullBuf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode %q: %w", path, err)
	}

	samples := make([]float32, len(fullBuf.Data))
	if isFloat && bits == 32 {
		// The underlying decoder hands back each sample as the raw
		// little-endian word reinterpreted as a signed integer; for an
		// IEEE-float WAV that word is the float32 bit pattern itself, so
		// it must be bit-cast back rather than scaled.
		for i, v := range fullBuf.Data {
			samples[i] = math.Float32frombits(uint32(int32(v)))
		}
	} else {
		max := float64(int64(1)<<uint(bits-1)) - 1
		for i, v := range fullBuf.Data {
			samples[i] = float32(float64(v) / max)
		}
	}

	return &Source{Samples: samples, Channels: channels, SampleRate: sampleRate}, nil
}

// loadMP3 decodes an MPEG-1/2 Layer III file into a Source.
func loadMP3(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %q: %w", path, err)
	}
	defer f.Close()

	dec, err := minimp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("audio: mp3 decode %q: %w", path, err)
	}

	var samples []float32
	pcm := make([]byte, 4096)
	for {
		n, err := dec.Read(pcm)
		if n > 0 {
			for i := 0; i+1 < n; i += 2 {
				v := int16(pcm[i]) | int16(pcm[i+1])<<8
				samples = append(samples, float32(v)/32768.0)
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("audio: mp3 decode %q: %w", path, err)
		}
		if n == 0 {
			break
		}
	}

	return &Source{
		Samples:    samples,
		Channels:   dec.Channels,
		SampleRate: dec.SampleRate,
	}, nil
}

// StereoAt returns the left/right sample pair at frame index i, with mono
// sources duplicated to both channels and out-of-range indices returning
// silence.
func (s *Source) StereoAt(i int) (left, right float32) {
	if s.Channels <= 0 || len(s.Samples) == 0 {
		return 0, 0
	}
	frame := i * s.Channels
	if frame >= len(s.Samples) {
		return 0, 0
	}
	if s.Channels == 1 {
		return s.Samples[frame], s.Samples[frame]
	}
	return s.Samples[frame], s.Samples[frame+1]
}

// NumFrames returns the number of stereo frames available.
func (s *Source) NumFrames() int {
	if s.Channels == 0 {
		return 0
	}
	return len(s.Samples) / s.Channels
}
