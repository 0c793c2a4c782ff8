package libretro

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/user-none/hwbridge/logger"
	"github.com/user-none/hwbridge/pump"
)

// coreOption is a frontend-visible setting of the bridge.
type coreOption struct {
	key    string
	label  string
	def    string
	values []string
	apply  func(cfg *pump.Config, value string) error
}

var coreOptions = []coreOption{
	{
		key:    "fence_timeout_us",
		label:  "Frame fence wait (microseconds)",
		def:    "1000",
		values: []string{"0", "500", "1000", "2000", "4000", "8000"},
		apply: func(cfg *pump.Config, v string) error {
			return setDuration(&cfg.FenceBudget, v, time.Microsecond, 0)
		},
	},
	{
		key:    "audio_buffer_ms",
		label:  "Audio buffer (ms)",
		def:    "500",
		values: []string{"100", "250", "500", "1000"},
		apply: func(cfg *pump.Config, v string) error {
			return setDuration(&cfg.AudioBuffer, v, time.Millisecond, 20)
		},
	},
	{
		key:    "supervisor",
		label:  "Pause emulation when the frontend stalls",
		def:    "enabled",
		values: []string{"enabled", "disabled"},
		apply: func(cfg *pump.Config, v string) error {
			switch v {
			case "enabled":
				cfg.Supervise = true
			case "disabled":
				cfg.Supervise = false
			default:
				return fmt.Errorf("unknown value %q", v)
			}
			return nil
		},
	},
	{
		key:    "pause_threshold_ms",
		label:  "Stall before pausing (ms)",
		def:    "100",
		values: []string{"50", "100", "200", "500"},
		apply: func(cfg *pump.Config, v string) error {
			return setDuration(&cfg.Supervisor.PauseThreshold, v, time.Millisecond, 1)
		},
	},
	{
		key:    "resume_threshold_ms",
		label:  "Frame gap to resume (ms)",
		def:    "40",
		values: []string{"20", "40", "80"},
		apply: func(cfg *pump.Config, v string) error {
			return setDuration(&cfg.Supervisor.ResumeThreshold, v, time.Millisecond, 1)
		},
	},
}

func setDuration(dst *time.Duration, value string, unit time.Duration, least int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("not a number: %q", value)
	}
	if n < least {
		return fmt.Errorf("%d is below %d", n, least)
	}
	*dst = time.Duration(n) * unit
	return nil
}

// definition is the SET_VARIABLES value string: label, then the values with
// the default first.
func (o coreOption) definition() string {
	return o.label + "; " + strings.Join(reorderDefault(o.values, o.def), "|")
}

// bridgeConfig applies the option values returned by get to base. get
// returns false for options the frontend has no value for. Unparseable
// values keep the base setting. Supervisor timings without hysteresis fall
// back to the base timings.
func bridgeConfig(base pump.Config, get func(key string) (string, bool)) pump.Config {
	cfg := base
	for _, o := range coreOptions {
		v, ok := get(o.key)
		if !ok {
			continue
		}
		if err := o.apply(&cfg, v); err != nil {
			logger.Logf("libretro", "option %s: %v", o.key, err)
		}
	}

	if cfg.Supervise {
		if err := cfg.Supervisor.Validate(); err != nil {
			logger.Logf("libretro", "%v, using default supervisor timings", err)
			cfg.Supervisor = base.Supervisor
		}
	}
	return cfg
}

// reorderDefault moves the default value to the front of a values slice.
func reorderDefault(values []string, def string) []string {
	result := make([]string, 0, len(values))
	result = append(result, def)
	for _, v := range values {
		if v != def {
			result = append(result, v)
		}
	}
	return result
}
