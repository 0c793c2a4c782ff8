package libretro

import (
	"strings"
	"testing"
	"time"

	"github.com/user-none/hwbridge/pump"
)

func values(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestReorderDefault(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		def    string
		want   []string
	}{
		{"already first", []string{"a", "b", "c"}, "a", []string{"a", "b", "c"}},
		{"middle", []string{"a", "b", "c"}, "b", []string{"b", "a", "c"}},
		{"last", []string{"a", "b", "c"}, "c", []string{"c", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderDefault(tt.values, tt.def)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptionDefinitions(t *testing.T) {
	seen := make(map[string]bool)
	for _, o := range coreOptions {
		if seen[o.key] {
			t.Errorf("duplicate option %s", o.key)
		}
		seen[o.key] = true

		def := o.definition()
		if !strings.HasPrefix(def, o.label+"; "+o.def) {
			t.Errorf("%s definition %q does not lead with the default", o.key, def)
		}
		if strings.Count(def, o.def) != 1 {
			t.Errorf("%s definition %q repeats the default", o.key, def)
		}
	}
}

// every listed value must apply cleanly
func TestOptionValuesApply(t *testing.T) {
	for _, o := range coreOptions {
		for _, v := range o.values {
			cfg := pump.DefaultConfig()
			if err := o.apply(&cfg, v); err != nil {
				t.Errorf("%s=%s: %v", o.key, v, err)
			}
		}
	}
}

func TestBridgeConfig(t *testing.T) {
	base := pump.DefaultConfig()

	tests := []struct {
		name   string
		values map[string]string
		check  func(t *testing.T, cfg pump.Config)
	}{
		{
			name:   "no values keeps base",
			values: map[string]string{},
			check: func(t *testing.T, cfg pump.Config) {
				if cfg != base {
					t.Errorf("got %+v, want %+v", cfg, base)
				}
			},
		},
		{
			name:   "fence and audio",
			values: map[string]string{"fence_timeout_us": "2000", "audio_buffer_ms": "250"},
			check: func(t *testing.T, cfg pump.Config) {
				if cfg.FenceBudget != 2*time.Millisecond {
					t.Errorf("FenceBudget = %v, want 2ms", cfg.FenceBudget)
				}
				if cfg.AudioBuffer != 250*time.Millisecond {
					t.Errorf("AudioBuffer = %v, want 250ms", cfg.AudioBuffer)
				}
			},
		},
		{
			name:   "zero fence budget",
			values: map[string]string{"fence_timeout_us": "0"},
			check: func(t *testing.T, cfg pump.Config) {
				if cfg.FenceBudget != 0 {
					t.Errorf("FenceBudget = %v, want 0", cfg.FenceBudget)
				}
			},
		},
		{
			name:   "garbage keeps base",
			values: map[string]string{"fence_timeout_us": "fast", "audio_buffer_ms": "-5", "supervisor": "maybe"},
			check: func(t *testing.T, cfg pump.Config) {
				if cfg != base {
					t.Errorf("got %+v, want %+v", cfg, base)
				}
			},
		},
		{
			name:   "supervisor disabled",
			values: map[string]string{"supervisor": "disabled"},
			check: func(t *testing.T, cfg pump.Config) {
				if cfg.Supervise {
					t.Error("Supervise = true, want false")
				}
			},
		},
		{
			name:   "thresholds",
			values: map[string]string{"pause_threshold_ms": "200", "resume_threshold_ms": "80"},
			check: func(t *testing.T, cfg pump.Config) {
				if cfg.Supervisor.PauseThreshold != 200*time.Millisecond || cfg.Supervisor.ResumeThreshold != 80*time.Millisecond {
					t.Errorf("thresholds = %v/%v, want 200ms/80ms",
						cfg.Supervisor.PauseThreshold, cfg.Supervisor.ResumeThreshold)
				}
			},
		},
		{
			name:   "no hysteresis falls back",
			values: map[string]string{"pause_threshold_ms": "50", "resume_threshold_ms": "80"},
			check: func(t *testing.T, cfg pump.Config) {
				if cfg.Supervisor != base.Supervisor {
					t.Errorf("Supervisor = %+v, want %+v", cfg.Supervisor, base.Supervisor)
				}
				if err := cfg.Validate(); err != nil {
					t.Errorf("Validate() = %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, bridgeConfig(base, values(tt.values)))
		})
	}
}
