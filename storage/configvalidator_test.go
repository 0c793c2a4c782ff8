package storage

import (
	"strings"
	"testing"
)

func TestDetectPresentKeys(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected map[string]bool
	}{
		{
			name: "all keys present",
			json: `{
				"version": 1,
				"video": {"baseWidth": 1280, "baseHeight": 720, "fenceTimeoutUs": 1000},
				"audio": {"bufferMs": 500, "volume": 1.0},
				"pump": {"supervisor": true, "pauseThresholdMs": 100, "resumeThresholdMs": 40, "pollIntervalMs": 10},
				"window": {"width": 1280, "height": 720}
			}`,
			expected: map[string]bool{
				"version":         true,
				"video.baseWidth": true, "video.baseHeight": true, "video.fenceTimeoutUs": true,
				"audio.bufferMs": true, "audio.volume": true,
				"pump.supervisor": true, "pump.pauseThresholdMs": true,
				"pump.resumeThresholdMs": true, "pump.pollIntervalMs": true,
				"window.width": true, "window.height": true,
			},
		},
		{
			name:     "empty object",
			json:     `{}`,
			expected: map[string]bool{},
		},
		{
			name:     "invalid JSON",
			json:     `{bad`,
			expected: map[string]bool{},
		},
		{
			name:     "partial section",
			json:     `{"audio": {"volume": 0}}`,
			expected: map[string]bool{"audio.volume": true},
		},
		{
			name:     "section is not an object",
			json:     `{"pump": 5, "version": 1}`,
			expected: map[string]bool{"version": true},
		},
		{
			name:     "unknown keys ignored",
			json:     `{"video": {"shader": "crt"}}`,
			expected: map[string]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectPresentKeys([]byte(tt.json))
			if len(got) != len(tt.expected) {
				t.Errorf("got %d keys %v, want %d keys %v", len(got), got, len(tt.expected), tt.expected)
			}
			for k := range tt.expected {
				if !got[k] {
					t.Errorf("missing key %q", k)
				}
			}
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if errs := ValidateConfig(DefaultConfig()); len(errs) != 0 {
		t.Errorf("default config invalid: %v", errs)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		key    string
	}{
		{"bad version", func(c *Config) { c.Version = 2 }, "version"},
		{"zero base width", func(c *Config) { c.Video.BaseWidth = 0 }, "video.baseWidth"},
		{"huge base height", func(c *Config) { c.Video.BaseHeight = 10000 }, "video.baseHeight"},
		{"negative fence timeout", func(c *Config) { c.Video.FenceTimeoutUs = -1 }, "video.fenceTimeoutUs"},
		{"tiny audio buffer", func(c *Config) { c.Audio.BufferMs = 5 }, "audio.bufferMs"},
		{"loud volume", func(c *Config) { c.Audio.Volume = 2.5 }, "audio.volume"},
		{"long pause threshold", func(c *Config) { c.Pump.PauseThresholdMs = 20000 }, "pump.pauseThresholdMs"},
		{"no hysteresis", func(c *Config) { c.Pump.ResumeThresholdMs = 100 }, "pump.resumeThresholdMs"},
		{"inverted thresholds", func(c *Config) { c.Pump.ResumeThresholdMs = 150 }, "pump.resumeThresholdMs"},
		{"zero poll interval", func(c *Config) { c.Pump.PollIntervalMs = 0 }, "pump.pollIntervalMs"},
		{"narrow window", func(c *Config) { c.Window.Width = 100 }, "window.width"},
		{"short window", func(c *Config) { c.Window.Height = 100 }, "window.height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			errs := ValidateConfig(c)
			if len(errs) != 1 {
				t.Fatalf("got %d errors %v, want 1", len(errs), errs)
			}
			if !strings.HasPrefix(errs[0], tt.key+": ") {
				t.Errorf("got %q, want prefix %q", errs[0], tt.key)
			}

			CorrectConfig(c)
			if errs := ValidateConfig(c); len(errs) != 0 {
				t.Errorf("after CorrectConfig: %v", errs)
			}
		})
	}
}

func TestValidateConfigZeroValuesAllowed(t *testing.T) {
	c := DefaultConfig()
	c.Audio.Volume = 0
	c.Video.FenceTimeoutUs = 0
	c.Pump.Supervisor = false
	if errs := ValidateConfig(c); len(errs) != 0 {
		t.Errorf("got %v, want no errors", errs)
	}
}

func TestCorrectConfigPreservesValidFields(t *testing.T) {
	c := DefaultConfig()
	c.Audio.BufferMs = 250
	c.Pump.PauseThresholdMs = 200
	c.Pump.ResumeThresholdMs = 80
	c.Window.Width = 10

	CorrectConfig(c)

	if c.Audio.BufferMs != 250 {
		t.Errorf("bufferMs = %d, want 250", c.Audio.BufferMs)
	}
	if c.Pump.PauseThresholdMs != 200 || c.Pump.ResumeThresholdMs != 80 {
		t.Errorf("thresholds = %d/%d, want 200/80", c.Pump.PauseThresholdMs, c.Pump.ResumeThresholdMs)
	}
	if c.Window.Width != 1280 {
		t.Errorf("window.width = %d, want 1280", c.Window.Width)
	}
}

func TestCorrectConfigResumeFollowsSmallPause(t *testing.T) {
	c := DefaultConfig()
	c.Pump.PauseThresholdMs = 30
	c.Pump.ResumeThresholdMs = 30

	CorrectConfig(c)

	if c.Pump.ResumeThresholdMs >= c.Pump.PauseThresholdMs {
		t.Errorf("resume %d not below pause %d", c.Pump.ResumeThresholdMs, c.Pump.PauseThresholdMs)
	}
}

func TestApplyMissingDefaults(t *testing.T) {
	c := &Config{Audio: AudioConfig{Volume: 0}}
	ApplyMissingDefaults(c, map[string]bool{"version": true, "audio.volume": true})

	if c.Version != 0 {
		t.Errorf("version = %d, want 0 (present)", c.Version)
	}
	if c.Audio.Volume != 0 {
		t.Errorf("volume = %v, want 0 (present)", c.Audio.Volume)
	}
	if c.Audio.BufferMs != 500 || c.Pump.PauseThresholdMs != 100 || !c.Pump.Supervisor {
		t.Errorf("absent fields not defaulted: %+v", c)
	}
}
