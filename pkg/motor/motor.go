// Package motor drives the two wheels of the differential base.
package motor

import (
	"fmt"
	"time"
)

// Side identifies one wheel.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Driver is the low-level motor output. Implementations must be idempotent
// and cheap enough to call on every control tick.
type Driver interface {
	// SetVelocity sets a signed normalized velocity in [-1, 1].
	SetVelocity(side Side, value float64) error
	// Stop sets both wheels to zero.
	Stop() error
	// Close releases the hardware. It must leave the motors stopped.
	Close() error
}

// Command is one actuation decision.
//
// The wheels are set to Left/Right and held for Hold. A zero Hold means the
// velocities stay in effect until the next command. When StopAfterHold is
// set the wheels are stopped once Hold has elapsed, then the caller waits
// Cooldown before evaluating the next frame.
type Command struct {
	Left          float64       `json:"left"`
	Right         float64       `json:"right"`
	Hold          time.Duration `json:"hold"`
	StopAfterHold bool          `json:"stopAfterHold"`
	Cooldown      time.Duration `json:"cooldown"`
}

// Halt is the all-stop command.
var Halt = Command{StopAfterHold: true}

// Blocking returns the total time Execute will block for.
func (c Command) Blocking() time.Duration {
	return c.Hold + c.Cooldown
}

func (c Command) String() string {
	return fmt.Sprintf("left=%.2f right=%.2f hold=%s stop=%t cooldown=%s",
		c.Left, c.Right, c.Hold, c.StopAfterHold, c.Cooldown)
}

// ClampVelocity limits v to [-1, 1].
func ClampVelocity(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
