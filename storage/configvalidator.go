package storage

import (
	"encoding/json"
	"fmt"
)

// sectionKeys lists, per JSON section, the keys whose zero value is a
// legitimate setting and so must be detected rather than inferred.
var sectionKeys = map[string][]string{
	"video":  {"baseWidth", "baseHeight", "fenceTimeoutUs"},
	"audio":  {"bufferMs", "volume"},
	"pump":   {"supervisor", "pauseThresholdMs", "resumeThresholdMs", "pollIntervalMs"},
	"window": {"width", "height"},
}

// detectPresentKeys returns the dotted-path keys (e.g. "audio.volume")
// explicitly present in the JSON.
func detectPresentKeys(jsonBytes []byte) map[string]bool {
	present := make(map[string]bool)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		return present
	}

	if _, ok := raw["version"]; ok {
		present["version"] = true
	}

	for section, keys := range sectionKeys {
		sectionRaw, ok := raw[section]
		if !ok {
			continue
		}
		var fields map[string]json.RawMessage
		if json.Unmarshal(sectionRaw, &fields) != nil {
			continue
		}
		for _, k := range keys {
			if _, ok := fields[k]; ok {
				present[section+"."+k] = true
			}
		}
	}

	return present
}

// ApplyMissingDefaults sets default values for config fields that are absent
// from the JSON file. Fields that were present keep their value, including
// zero (e.g. volume=0 or a fence timeout of 0 for a pure poll).
func ApplyMissingDefaults(config *Config, presentKeys map[string]bool) {
	defaults := DefaultConfig()

	apply := func(key string, dst *int, def int) {
		if !presentKeys[key] {
			*dst = def
		}
	}

	apply("version", &config.Version, defaults.Version)
	apply("video.baseWidth", &config.Video.BaseWidth, defaults.Video.BaseWidth)
	apply("video.baseHeight", &config.Video.BaseHeight, defaults.Video.BaseHeight)
	apply("video.fenceTimeoutUs", &config.Video.FenceTimeoutUs, defaults.Video.FenceTimeoutUs)
	apply("audio.bufferMs", &config.Audio.BufferMs, defaults.Audio.BufferMs)
	apply("pump.pauseThresholdMs", &config.Pump.PauseThresholdMs, defaults.Pump.PauseThresholdMs)
	apply("pump.resumeThresholdMs", &config.Pump.ResumeThresholdMs, defaults.Pump.ResumeThresholdMs)
	apply("pump.pollIntervalMs", &config.Pump.PollIntervalMs, defaults.Pump.PollIntervalMs)
	apply("window.width", &config.Window.Width, defaults.Window.Width)
	apply("window.height", &config.Window.Height, defaults.Window.Height)

	if !presentKeys["audio.volume"] {
		config.Audio.Volume = defaults.Audio.Volume
	}
	if !presentKeys["pump.supervisor"] {
		config.Pump.Supervisor = defaults.Pump.Supervisor
	}
}

// Ranges for the numeric settings.
const (
	maxBaseWidth      = 7680
	maxBaseHeight     = 4320
	maxFenceTimeoutUs = 100000
	minBufferMs       = 20
	maxBufferMs       = 2000
	maxVolume         = 2.0
	maxThresholdMs    = 10000
	maxPollIntervalMs = 1000
	minWindowWidth    = 320
	minWindowHeight   = 180
)

type rule struct {
	key   string
	ok    func(c *Config) bool
	show  func(c *Config) string
	reset func(c, defaults *Config)
}

var rules = []rule{
	{
		key:   "version",
		ok:    func(c *Config) bool { return c.Version == 1 },
		show:  func(c *Config) string { return fmt.Sprintf("%d (valid: 1)", c.Version) },
		reset: func(c, d *Config) { c.Version = d.Version },
	},
	{
		key:   "video.baseWidth",
		ok:    func(c *Config) bool { return c.Video.BaseWidth >= 1 && c.Video.BaseWidth <= maxBaseWidth },
		show:  func(c *Config) string { return fmt.Sprintf("%d (valid: 1-%d)", c.Video.BaseWidth, maxBaseWidth) },
		reset: func(c, d *Config) { c.Video.BaseWidth = d.Video.BaseWidth },
	},
	{
		key:   "video.baseHeight",
		ok:    func(c *Config) bool { return c.Video.BaseHeight >= 1 && c.Video.BaseHeight <= maxBaseHeight },
		show:  func(c *Config) string { return fmt.Sprintf("%d (valid: 1-%d)", c.Video.BaseHeight, maxBaseHeight) },
		reset: func(c, d *Config) { c.Video.BaseHeight = d.Video.BaseHeight },
	},
	{
		key: "video.fenceTimeoutUs",
		ok: func(c *Config) bool {
			return c.Video.FenceTimeoutUs >= 0 && c.Video.FenceTimeoutUs <= maxFenceTimeoutUs
		},
		show: func(c *Config) string {
			return fmt.Sprintf("%d (valid: 0-%d)", c.Video.FenceTimeoutUs, maxFenceTimeoutUs)
		},
		reset: func(c, d *Config) { c.Video.FenceTimeoutUs = d.Video.FenceTimeoutUs },
	},
	{
		key: "audio.bufferMs",
		ok:  func(c *Config) bool { return c.Audio.BufferMs >= minBufferMs && c.Audio.BufferMs <= maxBufferMs },
		show: func(c *Config) string {
			return fmt.Sprintf("%d (valid: %d-%d)", c.Audio.BufferMs, minBufferMs, maxBufferMs)
		},
		reset: func(c, d *Config) { c.Audio.BufferMs = d.Audio.BufferMs },
	},
	{
		key:   "audio.volume",
		ok:    func(c *Config) bool { return c.Audio.Volume >= 0 && c.Audio.Volume <= maxVolume },
		show:  func(c *Config) string { return fmt.Sprintf("%.2f (valid: 0.0-2.0)", c.Audio.Volume) },
		reset: func(c, d *Config) { c.Audio.Volume = d.Audio.Volume },
	},
	{
		key: "pump.pauseThresholdMs",
		ok: func(c *Config) bool {
			return c.Pump.PauseThresholdMs >= 2 && c.Pump.PauseThresholdMs <= maxThresholdMs
		},
		show: func(c *Config) string {
			return fmt.Sprintf("%d (valid: 2-%d)", c.Pump.PauseThresholdMs, maxThresholdMs)
		},
		reset: func(c, d *Config) { c.Pump.PauseThresholdMs = d.Pump.PauseThresholdMs },
	},
	// checked after the pause threshold so a reset pause value is compared
	{
		key: "pump.resumeThresholdMs",
		ok: func(c *Config) bool {
			return c.Pump.ResumeThresholdMs >= 1 && c.Pump.ResumeThresholdMs < c.Pump.PauseThresholdMs
		},
		show: func(c *Config) string {
			return fmt.Sprintf("%d (valid: 1-%d, below pump.pauseThresholdMs)",
				c.Pump.ResumeThresholdMs, max(c.Pump.PauseThresholdMs-1, 1))
		},
		reset: func(c, d *Config) {
			c.Pump.ResumeThresholdMs = min(d.Pump.ResumeThresholdMs, c.Pump.PauseThresholdMs/2)
		},
	},
	{
		key: "pump.pollIntervalMs",
		ok:  func(c *Config) bool { return c.Pump.PollIntervalMs >= 1 && c.Pump.PollIntervalMs <= maxPollIntervalMs },
		show: func(c *Config) string {
			return fmt.Sprintf("%d (valid: 1-%d)", c.Pump.PollIntervalMs, maxPollIntervalMs)
		},
		reset: func(c, d *Config) { c.Pump.PollIntervalMs = d.Pump.PollIntervalMs },
	},
	{
		key:   "window.width",
		ok:    func(c *Config) bool { return c.Window.Width >= minWindowWidth },
		show:  func(c *Config) string { return fmt.Sprintf("%d (valid: >= %d)", c.Window.Width, minWindowWidth) },
		reset: func(c, d *Config) { c.Window.Width = d.Window.Width },
	},
	{
		key:   "window.height",
		ok:    func(c *Config) bool { return c.Window.Height >= minWindowHeight },
		show:  func(c *Config) string { return fmt.Sprintf("%d (valid: >= %d)", c.Window.Height, minWindowHeight) },
		reset: func(c, d *Config) { c.Window.Height = d.Window.Height },
	},
}

// ValidateConfig checks all config fields against valid ranges and returns
// human-readable error descriptions. An empty slice means the config is valid.
func ValidateConfig(config *Config) []string {
	var errors []string
	for _, r := range rules {
		if !r.ok(config) {
			errors = append(errors, r.key+": "+r.show(config))
		}
	}
	return errors
}

// CorrectConfig resets any invalid fields to their defaults from
// DefaultConfig(). Valid fields are preserved.
func CorrectConfig(config *Config) *Config {
	defaults := DefaultConfig()
	for _, r := range rules {
		if !r.ok(config) {
			r.reset(config, defaults)
		}
	}
	return config
}
