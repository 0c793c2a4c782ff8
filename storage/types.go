package storage

import (
	"time"

	"github.com/user-none/hwbridge/pump"
	"github.com/user-none/hwbridge/supervisor"
)

// Config represents application configuration (config.json)
type Config struct {
	Version int          `json:"version"`
	Video   VideoConfig  `json:"video"`
	Audio   AudioConfig  `json:"audio"`
	Pump    PumpConfig   `json:"pump"`
	Window  WindowConfig `json:"window"`
}

// VideoConfig contains presentation settings
type VideoConfig struct {
	BaseWidth      int `json:"baseWidth"`
	BaseHeight     int `json:"baseHeight"`
	FenceTimeoutUs int `json:"fenceTimeoutUs"`
}

// AudioConfig contains audio settings
type AudioConfig struct {
	BufferMs   int     `json:"bufferMs"`
	Volume     float64 `json:"volume"`
	Muted      bool    `json:"muted"`
	CaptureWav bool    `json:"captureWav"`
}

// PumpConfig contains the pump supervisor settings
type PumpConfig struct {
	Supervisor        bool `json:"supervisor"`
	PauseThresholdMs  int  `json:"pauseThresholdMs"`
	ResumeThresholdMs int  `json:"resumeThresholdMs"`
	PollIntervalMs    int  `json:"pollIntervalMs"`
}

// WindowConfig contains window position and size
type WindowConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Video: VideoConfig{
			BaseWidth:      1280,
			BaseHeight:     720,
			FenceTimeoutUs: 1000,
		},
		Audio: AudioConfig{
			BufferMs: 500,
			Volume:   1.0,
		},
		Pump: PumpConfig{
			Supervisor:        true,
			PauseThresholdMs:  100,
			ResumeThresholdMs: 40,
			PollIntervalMs:    10,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
		},
	}
}

// BridgeConfig derives the bridge settings. The config should be valid;
// see ValidateConfig and CorrectConfig.
func (c *Config) BridgeConfig() pump.Config {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return pump.Config{
		BaseWidth:   c.Video.BaseWidth,
		BaseHeight:  c.Video.BaseHeight,
		FenceBudget: time.Duration(c.Video.FenceTimeoutUs) * time.Microsecond,
		AudioBuffer: ms(c.Audio.BufferMs),
		Supervise:   c.Pump.Supervisor,
		Supervisor: supervisor.Config{
			PauseThreshold:  ms(c.Pump.PauseThresholdMs),
			ResumeThreshold: ms(c.Pump.ResumeThresholdMs),
			PollInterval:    ms(c.Pump.PollIntervalMs),
		},
	}
}
