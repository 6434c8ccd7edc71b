// config/config_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultProducesUsableLimiter(t *testing.T) {
	cfg := Default()
	out := cfg.OutputConfig()
	if out.LimiterThreshold != 0.95 {
		t.Errorf("OutputConfig().LimiterThreshold = %v, want 0.95", out.LimiterThreshold)
	}
	if out.LimiterLookahead != 256 {
		t.Errorf("OutputConfig().LimiterLookahead = %v, want 256", out.LimiterLookahead)
	}
}

func TestOutputConfigClampsOutOfRangeValues(t *testing.T) {
	cfg := Default()
	cfg.LimiterThreshold = 0.0
	cfg.LimiterLookahead = 0

	out := cfg.OutputConfig()
	if out.LimiterThreshold != 0.1 {
		t.Errorf("clamped LimiterThreshold = %v, want 0.1", out.LimiterThreshold)
	}
	if out.LimiterLookahead != 1 {
		t.Errorf("clamped LimiterLookahead = %v, want 1", out.LimiterLookahead)
	}
}

func TestRDSParamsAppliesMetadata(t *testing.T) {
	cfg := Default()
	cfg.PI = 0x7200
	cfg.PTY = 10
	cfg.PS = "KB9VT-1"

	p := cfg.RDSParams()
	if p.PI != 0x7200 {
		t.Errorf("RDSParams().PI = %#x, want 0x7200", p.PI)
	}
	if p.PTY != 10 {
		t.Errorf("RDSParams().PTY = %d, want 10", p.PTY)
	}
	ps := p.PS()
	if got := string(ps[:7]); got != "KB9VT-1" {
		t.Errorf("RDSParams().PS() = %q, want prefix %q", got, "KB9VT-1")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	const body = `{"pi": 29184, "ps": "TESTING", "duration_secs": 2.5}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.PI != 29184 {
		t.Errorf("LoadFile().PI = %d, want 29184", cfg.PI)
	}
	if cfg.DurationSecs != 2.5 {
		t.Errorf("LoadFile().DurationSecs = %v, want 2.5", cfg.DurationSecs)
	}
	// Fields absent from the file should keep Default()'s values.
	if cfg.LimiterThreshold != 0.95 {
		t.Errorf("LoadFile().LimiterThreshold = %v, want default 0.95", cfg.LimiterThreshold)
	}
}

func TestLoadFileMissingFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadFile on a missing path should return an error")
	}
}
