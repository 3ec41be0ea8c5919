// Package hsv holds the color model used by the ball tracker: single HSV
// observations and the acceptance window (ColorRange) built from them.
//
// Values follow the OpenCV 8-bit convention: hue in [0,179], saturation and
// value in [0,255]. Hue is circular; a ColorRange whose lower hue is greater
// than its upper hue wraps through 0.
package hsv

import (
	"fmt"
)

const (
	// HueMax is the largest valid hue.
	HueMax = 179
	// HueRing is the size of the hue circle.
	HueRing = HueMax + 1
	// ChannelMax is the largest valid saturation or value.
	ChannelMax = 255
)

// Sample is a single pixel observation.
type Sample struct {
	H int `json:"h"`
	S int `json:"s"`
	V int `json:"v"`
}

// Triplet returns the sample as [h, s, v].
func (s Sample) Triplet() [3]int {
	return [3]int{s.H, s.S, s.V}
}

// SampleFromTriplet is the inverse of Sample.Triplet.
func SampleFromTriplet(t [3]int) Sample {
	return Sample{H: t[0], S: t[1], V: t[2]}
}

// Validate reports whether every channel lies in its domain.
func (s Sample) Validate() error {
	if s.H < 0 || s.H > HueMax {
		return fmt.Errorf("hue %d out of range [0,%d]", s.H, HueMax)
	}
	if s.S < 0 || s.S > ChannelMax {
		return fmt.Errorf("saturation %d out of range [0,%d]", s.S, ChannelMax)
	}
	if s.V < 0 || s.V > ChannelMax {
		return fmt.Errorf("value %d out of range [0,%d]", s.V, ChannelMax)
	}
	return nil
}

func (s Sample) String() string {
	return fmt.Sprintf("(%d,%d,%d)", s.H, s.S, s.V)
}

// ColorRange is an HSV acceptance window. S and V bounds always satisfy
// lower <= upper. When Lower.H > Upper.H the hue interval wraps, and the
// accepted hues are [Lower.H,179] ∪ [0,Upper.H].
//
// A ColorRange is a value; recalibration replaces it.
type ColorRange struct {
	Lower Sample `json:"lower"`
	Upper Sample `json:"upper"`
}

// NewColorRange validates the bounds and returns the range.
func NewColorRange(lower, upper Sample) (ColorRange, error) {
	r := ColorRange{Lower: lower, Upper: upper}
	if err := r.Validate(); err != nil {
		return ColorRange{}, err
	}
	return r, nil
}

// FromCenter expands a center sample by fixed tolerances. Hue bounds are
// taken modulo 180, so a center near 0 or 179 yields a wrapping range.
// Saturation and value are clamped to [0,255].
func FromCenter(center Sample, hTol, sTol, vTol int) ColorRange {
	return ColorRange{
		Lower: Sample{
			H: wrapHue(center.H - hTol),
			S: clamp(center.S-sTol, 0, ChannelMax),
			V: clamp(center.V-vTol, 0, ChannelMax),
		},
		Upper: Sample{
			H: wrapHue(center.H + hTol),
			S: clamp(center.S+sTol, 0, ChannelMax),
			V: clamp(center.V+vTol, 0, ChannelMax),
		},
	}
}

// Wraps reports whether the hue interval crosses the 0/179 boundary.
func (r ColorRange) Wraps() bool {
	return r.Lower.H > r.Upper.H
}

// Contains reports whether s falls inside the window.
func (r ColorRange) Contains(s Sample) bool {
	if s.S < r.Lower.S || s.S > r.Upper.S {
		return false
	}
	if s.V < r.Lower.V || s.V > r.Upper.V {
		return false
	}
	if r.Wraps() {
		return s.H >= r.Lower.H || s.H <= r.Upper.H
	}
	return s.H >= r.Lower.H && s.H <= r.Upper.H
}

// Split returns the non-wrapping sub-ranges whose union equals r: one range
// when r does not wrap, otherwise [0,Upper.H] and [Lower.H,179].
func (r ColorRange) Split() []ColorRange {
	if !r.Wraps() {
		return []ColorRange{r}
	}
	return []ColorRange{
		{
			Lower: Sample{H: 0, S: r.Lower.S, V: r.Lower.V},
			Upper: Sample{H: r.Upper.H, S: r.Upper.S, V: r.Upper.V},
		},
		{
			Lower: Sample{H: r.Lower.H, S: r.Lower.S, V: r.Lower.V},
			Upper: Sample{H: HueMax, S: r.Upper.S, V: r.Upper.V},
		},
	}
}

// Validate checks channel domains and the S/V ordering invariant.
func (r ColorRange) Validate() error {
	if err := r.Lower.Validate(); err != nil {
		return fmt.Errorf("lower bound: %w", err)
	}
	if err := r.Upper.Validate(); err != nil {
		return fmt.Errorf("upper bound: %w", err)
	}
	if r.Lower.S > r.Upper.S {
		return fmt.Errorf("lower saturation %d is greater than upper %d", r.Lower.S, r.Upper.S)
	}
	if r.Lower.V > r.Upper.V {
		return fmt.Errorf("lower value %d is greater than upper %d", r.Lower.V, r.Upper.V)
	}
	return nil
}

func (r ColorRange) String() string {
	return fmt.Sprintf("lower=%s upper=%s", r.Lower, r.Upper)
}

func wrapHue(h int) int {
	h %= HueRing
	if h < 0 {
		h += HueRing
	}
	return h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
