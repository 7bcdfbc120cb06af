// Separate package for hardware/input config structure,
// so state can embed it without importing device code.
package input_config

import (
	"time"

	"github.com/temoto/keypump/helpers"
)

const DefaultDevice = "/dev/input/event3"

type Config struct {
	// find keyboard with `cat /proc/bus/input/devices`
	Device string `hcl:"device"`
	// EVIOCGRAB, keys do not reach console/X while running
	Grab bool `hcl:"grab"`
	// 0 = plain blocking read, Stop waits for next device event
	PollTimeoutMs int  `hcl:"poll_timeout_ms"`
	LogDebug      bool `hcl:"log_debug"`
}

func (c *Config) PollTimeout() time.Duration {
	return helpers.IntMillisecondDefault(c.PollTimeoutMs, 0)
}

func (c *Config) DevicePath() string {
	if c.Device == "" {
		return DefaultDevice
	}
	return c.Device
}
