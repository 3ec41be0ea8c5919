package types

import "fmt"

// Target is a single-frame ball detection. It has no identity across
// frames; every tick produces a fresh one.
type Target struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

func (t Target) String() string {
	return fmt.Sprintf("x=%.0f y=%.0f r=%.1f", t.X, t.Y, t.Radius)
}
