//go:build !libretro

// Command hwbridge runs the test pattern machine behind the bridge in a
// window.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/user-none/hwbridge/logger"
	"github.com/user-none/hwbridge/softdevice"
	"github.com/user-none/hwbridge/standalone"
	"github.com/user-none/hwbridge/statsview"
	"github.com/user-none/hwbridge/storage"
	"github.com/user-none/hwbridge/testpattern"
)

func main() {
	var (
		stats    bool
		capture  bool
		fps      float64
		quiet    bool
		resetCfg bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&stats, "statsview", false, "Serve runtime stats (needs the statsview build tag)")
	flagSet.BoolVar(&capture, "capture", false, "Capture audio to a WAV file")
	flagSet.Float64Var(&fps, "fps", 60, "Test pattern frame rate")
	flagSet.BoolVar(&quiet, "quiet", false, "Do not echo the log to stdout")
	flagSet.BoolVar(&resetCfg, "reset-config", false, "Replace config.json with the defaults")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: hwbridge [-statsview] [-capture] [-fps 60] [-quiet] [-reset-config]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if !quiet {
		logger.SetEcho(os.Stdout)
	}

	if err := run(stats, capture, fps, resetCfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(stats, capture bool, fps float64, resetCfg bool) error {
	pattern := testpattern.DefaultConfig()
	pattern.FPS = fps

	dev := softdevice.New()
	factory := &testpattern.Factory{Config: pattern, Painter: dev}

	storage.Init(factory.SystemInfo().DataDirName)
	if err := storage.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if resetCfg {
		if err := storage.DeleteConfig(); err != nil {
			return err
		}
	}
	if err := storage.CreateConfigIfMissing(); err != nil {
		logger.Logf("config", "cannot create config: %v", err)
	}

	config, err := storage.LoadConfig()
	if err != nil {
		return err
	}
	if problems := storage.ValidateConfig(config); len(problems) > 0 {
		for _, p := range problems {
			logger.Logf("config", "%s", p)
		}
		config = storage.CorrectConfig(config)
		if err := storage.SaveConfig(config); err != nil {
			logger.Logf("config", "cannot save corrected config: %v", err)
		}
	}

	if stats {
		if statsview.Available() {
			statsview.Launch(os.Stdout)
		} else {
			logger.Log("statsview", "not available in this build")
		}
	}

	return standalone.Run(factory, dev, config, standalone.Options{Capture: capture})
}
