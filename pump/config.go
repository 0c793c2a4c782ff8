package pump

import (
	"fmt"
	"time"

	"github.com/user-none/hwbridge/audioring"
	"github.com/user-none/hwbridge/fence"
	"github.com/user-none/hwbridge/supervisor"
)

// Config holds the bridge settings.
type Config struct {
	// BaseWidth and BaseHeight are the fixed output size reported to the
	// host. Frames are scaled to it during the blit.
	BaseWidth  int
	BaseHeight int

	// FenceBudget bounds the consumer's wait for producer GPU work.
	FenceBudget time.Duration

	// AudioBuffer is the playback time held by the audio ring.
	AudioBuffer time.Duration

	// Supervise enables the pump supervisor.
	Supervise  bool
	Supervisor supervisor.Config
}

// DefaultConfig returns a 1280x720 bridge with the standard timings.
func DefaultConfig() Config {
	return Config{
		BaseWidth:   1280,
		BaseHeight:  720,
		FenceBudget: fence.DefaultBudget,
		AudioBuffer: audioring.DefaultBuffer,
		Supervise:   true,
		Supervisor:  supervisor.DefaultConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BaseWidth <= 0 || c.BaseHeight <= 0 {
		return fmt.Errorf("pump: invalid base size %dx%d", c.BaseWidth, c.BaseHeight)
	}
	if c.FenceBudget < 0 {
		return fmt.Errorf("pump: negative fence budget %v", c.FenceBudget)
	}
	if c.Supervise {
		if err := c.Supervisor.Validate(); err != nil {
			return err
		}
	}
	return nil
}
