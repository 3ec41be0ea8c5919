package main

import (
	"encoding/json"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
)

type statusJSON struct {
	Controller    statusControllerJSON  `json:"controller"`
	Target        *statusTargetJSON     `json:"target"`
	Range         statusRangeJSON       `json:"range"`
	Calibration   statusCalibrationJSON `json:"calibration"`
	Configuration map[string]any        `json:"configuration"`
}

type statusControllerJSON struct {
	State         string     `json:"state"`
	Action        string     `json:"action"`
	Left          float64    `json:"left"`
	Right         float64    `json:"right"`
	DriveEnabled  bool       `json:"driveEnabled"`
	TicksPerSec   float64    `json:"ticksPerSecond"`
	RecentTicks   int        `json:"recentTicks"`
	Ticks         uint64     `json:"ticks"`
	LastTickAt    *time.Time `json:"lastTickAt"`
	UptimeSeconds int64      `json:"uptimeSeconds"`
}

type statusTargetJSON struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Radius float64 `json:"radius"`
}

type statusRangeJSON struct {
	Profile string `json:"profile"`
	Lower   [3]int `json:"lower"`
	Upper   [3]int `json:"upper"`
	Wraps   bool   `json:"wraps"`
}

type statusCalibrationJSON struct {
	Collected  int     `json:"collected"`
	Required   int     `json:"required"`
	LastCenter *[3]int `json:"lastCenter"`
}

func printStatusJSON(cmd *cobra.Command, data *statusData) error {
	st := data.status

	var lastTick *time.Time
	if !st.LastTickAt.IsZero() {
		lastTick = &st.LastTickAt
	}
	var uptime int64
	if !st.StartedAt.IsZero() {
		uptime = int64(time.Since(st.StartedAt) / time.Second)
	}

	out := statusJSON{
		Controller: statusControllerJSON{
			State:         st.State,
			Action:        st.Action,
			Left:          st.Left,
			Right:         st.Right,
			DriveEnabled:  st.DriveEnabled,
			TicksPerSec:   math.Round(st.TicksPerSec*10) / 10,
			RecentTicks:   st.RecentTicks,
			Ticks:         st.Ticks,
			LastTickAt:    lastTick,
			UptimeSeconds: uptime,
		},
		Range: statusRangeJSON{
			Profile: st.Profile,
			Lower:   st.Range.Lower.Triplet(),
			Upper:   st.Range.Upper.Triplet(),
			Wraps:   st.Range.Wraps(),
		},
		Calibration: statusCalibrationJSON{
			Collected:  st.Calibration.Collected,
			Required:   st.Calibration.Required,
			LastCenter: tripletPtr(st.Calibration.LastCenter),
		},
		Configuration: data.config,
	}
	if st.Target != nil {
		out.Target = &statusTargetJSON{
			X:      int(math.Round(st.Target.X)),
			Y:      int(math.Round(st.Target.Y)),
			Radius: math.Round(st.Target.Radius*10) / 10,
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func tripletPtr(s *hsv.Sample) *[3]int {
	if s == nil {
		return nil
	}
	t := s.Triplet()
	return &t
}
