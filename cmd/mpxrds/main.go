// cmd/mpxrds/main.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apenwarr/fixconsole"
	"github.com/goforj/godump"

	"github.com/kb9vt/mpxrds/config"
	"github.com/kb9vt/mpxrds/driver"
	"github.com/kb9vt/mpxrds/engine"
	"github.com/kb9vt/mpxrds/log"
	"github.com/kb9vt/mpxrds/platform"
	"github.com/kb9vt/mpxrds/util"
)

var (
	configPath   = flag.String("config", "", "path to a JSON config file (overrides Default())")
	logLevel     = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir       = flag.String("logdir", "", "log file directory")
	offline      = flag.Bool("offline", false, "run the offline file-writer driver instead of the realtime engine")
	outputPath   = flag.String("out", "", "offline mode: WAV output path (overrides config)")
	audioPath    = flag.String("audio", "", "input WAV/MP3 path, live or offline (overrides config)")
	durationSecs = flag.Float64("duration", 0, "offline mode: generation duration in seconds (overrides config)")
	inputDevice  = flag.String("input-device", "", "realtime mode: capture device name (empty selects none/file source)")
	outputDevice = flag.String("output-device", "", "realtime mode: playback device name (empty selects host default)")
	ps           = flag.String("ps", "", "program service name (overrides config)")
	rt           = flag.String("rt", "", "radiotext (overrides config)")
	listDevices  = flag.Bool("list-devices", false, "list available audio input/output devices and exit")
	dumpConfig   = flag.Bool("dump-config", false, "dump the resolved Config and exit without running")
)

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	lg := log.New(!*offline, *logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	// Trim old decode-cache entries in the background; the cache is
	// purely an optimization, so failures are ignored.
	go func() { _ = util.CacheCullObjects(256 * 1024 * 1024) }()

	if *listDevices {
		fmt.Println("Input devices:")
		for _, d := range platform.GetAudioInputDevices() {
			fmt.Printf("  %s\n", d)
		}
		fmt.Println("Output devices:")
		for _, d := range platform.GetAudioOutputDevices() {
			fmt.Printf("  %s\n", d)
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		lg.Errorf("config: %v", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg)

	if *dumpConfig {
		godump.Dump(cfg)
		return
	}

	if *offline {
		if err := runOffline(lg, cfg); err != nil {
			lg.Errorf("offline run: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := runRealtime(lg, cfg); err != nil {
		lg.Errorf("realtime run: %v", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFile(*configPath)
}

func applyFlagOverrides(cfg *config.Config) {
	if *outputPath != "" {
		cfg.OutputPath = *outputPath
	}
	if *audioPath != "" {
		cfg.AudioPath = *audioPath
	}
	if *durationSecs > 0 {
		cfg.DurationSecs = *durationSecs
	}
	if *inputDevice != "" {
		cfg.InputDevice = *inputDevice
	}
	if *outputDevice != "" {
		cfg.OutputDevice = *outputDevice
	}
	if *ps != "" {
		cfg.PS = *ps
	}
	if *rt != "" {
		cfg.RT = *rt
	}
}

// runOffline drives the offline file writer, reporting progress to
// stderr and cleaning up the temporary output on SIGINT/SIGTERM via the
// shared TempFileRegistry.
func runOffline(lg *log.Logger, cfg *config.Config) error {
	if cfg.OutputPath == "" {
		return fmt.Errorf("output path required (-out or config output_path)")
	}

	registry := util.MakeTempFileRegistry(lg)

	return driver.Run(cfg, registry, func(frac float64) {
		fmt.Fprintf(os.Stderr, "\rgenerating... %5.1f%%", frac*100)
		if frac >= 1.0 {
			fmt.Fprintln(os.Stderr)
		}
	})
}

// runRealtime drives the C9 realtime engine until interrupted.
func runRealtime(lg *log.Logger, cfg *config.Config) error {
	eng, err := engine.New(lg, cfg)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx, cfg.InputDevice, cfg.OutputDevice); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			lg.Info("caught signal, shutting down")
			return eng.Stop()
		case <-ticker.C:
			if !eng.Running() {
				lg.Error("engine stopped unexpectedly")
				return fmt.Errorf("engine stopped unexpectedly")
			}
			snap := eng.Snapshot()
			lg.Infof("rms=%.3f peak=%.3f xruns=%d ringfill=%.2f", snap.RMS, snap.Peak, snap.XrunCount, snap.RingFill)
			lg.Debug(util.DumpHeldMutexes(lg))
		}
	}
}
