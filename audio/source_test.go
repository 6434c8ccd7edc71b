// audio/source_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, sampleRate, channels, bitDepth, format int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %q: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, format)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
}

func TestLoadWAVFloat32RoundTripsBitExact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.wav")

	want := []float32{0, 0.5, -0.5, 0.9999, -1, 1, 1e-7}
	data := make([]int, len(want))
	for i, v := range want {
		data[i] = int(int32(math.Float32bits(v)))
	}
	writeTestWAV(t, path, 228000, 1, 32, 3, data)

	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.SampleRate != 228000 || src.Channels != 1 {
		t.Fatalf("Source rate/channels = %d/%d, want 228000/1", src.SampleRate, src.Channels)
	}
	if len(src.Samples) != len(want) {
		t.Fatalf("Source has %d samples, want %d", len(src.Samples), len(want))
	}
	for i, v := range want {
		if src.Samples[i] != v {
			t.Errorf("sample %d = %v, want bit-exact %v", i, src.Samples[i], v)
		}
	}
}

func TestLoadWAVInt16Normalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcm16.wav")
	writeTestWAV(t, path, 44100, 2, 16, 1, []int{32767, -32767, 0, 16384})

	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []float32{1, -1, 0, float32(16384.0 / 32767.0)}
	for i, v := range want {
		if math.Abs(float64(src.Samples[i]-v)) > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, src.Samples[i], v)
		}
	}
}

func TestStereoAtDuplicatesMonoAndBoundsChecks(t *testing.T) {
	s := &Source{Samples: []float32{0.25, -0.75}, Channels: 1, SampleRate: 48000}

	l, r := s.StereoAt(0)
	if l != 0.25 || r != 0.25 {
		t.Errorf("StereoAt(0) = %v, %v, want mono duplicated 0.25, 0.25", l, r)
	}
	l, r = s.StereoAt(5)
	if l != 0 || r != 0 {
		t.Errorf("StereoAt past the end = %v, %v, want silence", l, r)
	}
	if n := s.NumFrames(); n != 2 {
		t.Errorf("NumFrames = %d, want 2", n)
	}
}
