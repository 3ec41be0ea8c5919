package types

import (
	"github.com/ajcalinisan/roboticscamp2025/pkg/calibration"
	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
)

// PixelRequest asks the daemon to sample the last frame at (X, Y).
type PixelRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SampleResponse is returned for every calibration sample. Result is set
// only when the sample completed a batch; SaveError is set when the new
// range is in use but could not be persisted.
type SampleResponse struct {
	Sample    hsv.Sample          `json:"sample"`
	Status    calibration.Status  `json:"status"`
	Result    *calibration.Result `json:"result,omitempty"`
	SaveError string              `json:"saveError,omitempty"`
}

// RangeResponse describes the active color range.
type RangeResponse struct {
	Profile   string         `json:"profile"`
	Range     hsv.ColorRange `json:"range"`
	Wraps     bool           `json:"wraps"`
	SaveError string         `json:"saveError,omitempty"`
}
