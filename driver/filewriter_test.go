// driver/filewriter_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/kb9vt/mpxrds/config"
	"github.com/kb9vt/mpxrds/log"
	"github.com/kb9vt/mpxrds/util"
)

func TestRunWritesWAVWithRightFormat(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.wav")

	cfg := config.Default()
	cfg.OutputPath = out
	cfg.DurationSecs = 0.01 // a couple thousand samples, keeps the test fast

	registry := util.MakeTempFileRegistry(log.New(false, "error", ""))
	var lastProgress float64
	if err := Run(cfg, registry, func(frac float64) { lastProgress = frac }); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if lastProgress != 1.0 {
		t.Errorf("final progress = %v, want 1.0", lastProgress)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		t.Fatal("output is not a valid WAV file")
	}
	if dec.SampleRate != 228000 {
		t.Errorf("SampleRate = %d, want 228000", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("NumChans = %d, want 1", dec.NumChans)
	}
	if dec.BitDepth != 32 {
		t.Errorf("BitDepth = %d, want 32", dec.BitDepth)
	}
}

func TestRunCleansUpOnZeroDuration(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.OutputPath = filepath.Join(dir, "out.wav")
	cfg.DurationSecs = 0

	registry := util.MakeTempFileRegistry(log.New(false, "error", ""))
	if err := Run(cfg, registry, nil); err == nil {
		t.Error("Run with zero duration should error, not write an empty file")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("directory has %d entries after a failed run, want 0 (no temp file left behind)", len(entries))
	}
}
