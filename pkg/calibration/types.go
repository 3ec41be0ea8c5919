package calibration

import (
	"time"

	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
)

// Tolerances are the half-widths added around a calibrated center.
type Tolerances struct {
	Hue        int `json:"hue"`
	Saturation int `json:"saturation"`
	Value      int `json:"value"`
}

// DefaultTolerances returns ±10 hue, ±60 saturation, ±60 value.
func DefaultTolerances() Tolerances {
	return Tolerances{Hue: 10, Saturation: 60, Value: 60}
}

// DefaultSampleCount is the number of samples averaged per calibration.
const DefaultSampleCount = 3

// Result is produced when the accumulator reaches its threshold.
type Result struct {
	Range   hsv.ColorRange `json:"range"`
	Center  hsv.Sample     `json:"center"`
	Samples []hsv.Sample   `json:"samples"`
}

// Status is a view model of the accumulator exposed over HTTP.
// Collected counts samples in the current (incomplete) batch.
type Status struct {
	Collected    int          `json:"collected"`
	Required     int          `json:"required"`
	Pending      []hsv.Sample `json:"pending,omitempty"`
	LastCenter   *hsv.Sample  `json:"lastCenter,omitempty"`
	CalibratedAt time.Time    `json:"calibratedAt,omitempty"`
	Tolerances   Tolerances   `json:"tolerances"`
}
