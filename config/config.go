// config/config.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package config defines the encoder's external configuration and its
// layered construction: defaults, then an optional JSON file, then
// command-line flag overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kb9vt/mpxrds/mpx"
	"github.com/kb9vt/mpxrds/rds"
)

// Config is the complete set of options recognized by the encoder:
// RDS metadata, signal-chain DSP settings, and the offline/realtime
// driver options.
type Config struct {
	// Metadata
	PS             string    `json:"ps"`
	RT             string    `json:"rt"`
	PI             uint16    `json:"pi"`
	TP             bool      `json:"tp"`
	TA             bool      `json:"ta"`
	PTY            uint8     `json:"pty"`
	MS             bool      `json:"ms"`
	DI             uint8     `json:"di"`
	AB             bool      `json:"ab"`
	ABAuto         bool      `json:"ab_auto"`
	CTEnabled      bool      `json:"ct_enabled"`
	AFListMHz      []float64 `json:"af_list_mhz"`
	PSScrollEnable bool      `json:"ps_scroll_enabled"`
	PSScrollText   string    `json:"ps_scroll_text"`
	PSScrollCPS    float64   `json:"ps_scroll_cps"`
	RTScrollEnable bool      `json:"rt_scroll_enabled"`
	RTScrollText   string    `json:"rt_scroll_text"`
	RTScrollCPS    float64   `json:"rt_scroll_cps"`
	Group0A        int       `json:"group_0a"`
	Group2A        int       `json:"group_2a"`
	Group4A        int       `json:"group_4a"`
	CTIntervalGrps int       `json:"ct_interval_groups"`
	PSAltList      []string  `json:"ps_alt_list"`
	PSAltInterval  int       `json:"ps_alt_interval"`

	// Signal chain
	OutputGain       float64 `json:"output_gain"`
	LimiterEnabled   bool    `json:"limiter_enabled"`
	LimiterThreshold float64 `json:"limiter_threshold"`
	LimiterLookahead int     `json:"limiter_lookahead"`
	PilotLevel       float64 `json:"pilot_level"`
	RDSLevel         float64 `json:"rds_level"`
	StereoSeparation float64 `json:"stereo_separation"`
	PreemphasisTau   float64 `json:"preemphasis_tau"`

	CompressorEnabled    bool    `json:"compressor_enabled"`
	CompressorThresholdD float64 `json:"compressor_threshold_db"`
	CompressorRatio      float64 `json:"compressor_ratio"`
	CompressorAttack     float64 `json:"compressor_attack"`
	CompressorRelease    float64 `json:"compressor_release"`

	// Driver
	DurationSecs   float64 `json:"duration_secs"`
	AudioPath      string  `json:"audio_path"`
	OutputPath     string  `json:"output_path"`
	OutputDevice   string  `json:"output_device"`
	InputDevice    string  `json:"input_device"`
}

// Default returns the reference defaults: empty station name/radiotext,
// music flag and stereo DI bit set, auto A/B toggling, clock-time
// enabled, unity output gain, nominal pilot/RDS levels, 50 us
// pre-emphasis, the limiter enabled at a conservative threshold, no
// compressor, ten seconds of offline generation.
func Default() *Config {
	return &Config{
		PI:               0x0000,
		PTY:              0,
		MS:               true,
		DI:               0b1000,
		ABAuto:           true,
		CTEnabled:        true,
		Group0A:          4,
		Group2A:          1,
		OutputGain:       1.0,
		LimiterEnabled:   true,
		LimiterThreshold: 0.95,
		LimiterLookahead: 256,
		PilotLevel:       0.9,
		RDSLevel:         1.0,
		StereoSeparation: 1.0,
		PreemphasisTau:   50e-6,
		DurationSecs:     10.0,
	}
}

// LoadFile reads a JSON config file into a Config, starting from
// Default() so fields the file omits keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// RDSParams builds an *rds.Params reflecting the metadata half of c.
func (c *Config) RDSParams() *rds.Params {
	p := rds.DefaultParams()
	p.PI = c.PI
	p.TP = c.TP
	p.TA = c.TA
	p.PTY = c.PTY
	p.MS = c.MS
	p.DI = c.DI
	p.ABAuto = c.ABAuto
	p.AB = c.AB
	p.CTEnabled = c.CTEnabled
	p.CTIntervalGroups = c.CTIntervalGrps
	p.SetGroupMix(c.Group0A, c.Group2A, c.Group4A)
	p.SetAFListMHz(c.AFListMHz)
	p.PSAltList = c.PSAltList
	p.PSAltInterval = c.PSAltInterval
	p.SetPS(c.PS)
	p.SetRT(c.RT)
	return p
}

// MPXConfig builds an mpx.Config reflecting the DSP half of c.
func (c *Config) MPXConfig() mpx.Config {
	return mpx.Config{
		PilotLevel:       c.PilotLevel,
		RDSLevel:         c.RDSLevel,
		StereoSeparation: c.StereoSeparation,
		PreemphasisTau:   c.PreemphasisTau,
		Compressor: mpx.CompressorConfig{
			Enabled:     c.CompressorEnabled,
			ThresholdDB: c.CompressorThresholdD,
			Ratio:       c.CompressorRatio,
			AttackSec:   c.CompressorAttack,
			ReleaseSec:  c.CompressorRelease,
		},
	}
}

// OutputConfig builds an mpx.OutputConfig reflecting the output-stage
// half of c, with lookahead and threshold clamped to their bounds.
func (c *Config) OutputConfig() mpx.OutputConfig {
	return mpx.OutputConfig{
		Gain:             c.OutputGain,
		LimiterEnabled:   c.LimiterEnabled,
		LimiterThreshold: mpx.ClampLimiterThreshold(c.LimiterThreshold),
		LimiterLookahead: mpx.ClampLimiterLookahead(c.LimiterLookahead),
	}
}
