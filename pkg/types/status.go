package types

import (
	"time"

	"github.com/ajcalinisan/roboticscamp2025/pkg/calibration"
	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
)

// Status holds the live controller state.
// This struct is shared between the daemon and client packages.
type Status struct {
	State        string             `json:"state"`
	Action       string             `json:"action"`
	Target       *Target            `json:"target,omitempty"`
	Left         float64            `json:"left"`
	Right        float64            `json:"right"`
	DriveEnabled bool               `json:"driveEnabled"`
	Profile      string             `json:"profile"`
	Range        hsv.ColorRange     `json:"range"`
	Calibration  calibration.Status `json:"calibration"`
	Ticks        uint64             `json:"ticks"`
	TicksPerSec  float64            `json:"ticksPerSecond"`
	RecentTicks  int                `json:"recentTicks"`
	LastTickAt   time.Time          `json:"lastTickAt,omitempty"`
	StartedAt    time.Time          `json:"startedAt"`
}
