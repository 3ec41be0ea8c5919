package events

import (
	"encoding/json"

	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
)

// Event name constants
const (
	ControllerState     = "controller.state"
	CalibrationSample   = "calibration.sample"
	CalibrationComplete = "calibration.complete"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// ControllerStateEvent is published when the policy changes state or
// action.
type ControllerStateEvent struct {
	From   string        `json:"from"`
	To     string        `json:"to"`
	Action string        `json:"action"`
	Target *types.Target `json:"target,omitempty"`
	Ts     int64         `json:"ts"`
}

// CalibrationSampleEvent is published for every accepted sample.
type CalibrationSampleEvent struct {
	Sample    hsv.Sample `json:"sample"`
	X         *int       `json:"x,omitempty"`
	Y         *int       `json:"y,omitempty"`
	Collected int        `json:"collected"`
	Required  int        `json:"required"`
	Ts        int64      `json:"ts"`
}

// CalibrationCompleteEvent is published when a batch produced a new range.
type CalibrationCompleteEvent struct {
	Profile   string         `json:"profile"`
	Range     hsv.ColorRange `json:"range"`
	Center    hsv.Sample     `json:"center"`
	Saved     bool           `json:"saved"`
	SaveError string         `json:"saveError,omitempty"`
	Ts        int64          `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.ControllerStateEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.From, payload.To)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
