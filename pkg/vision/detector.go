// Package vision finds the ball in an HSV frame.
package vision

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
)

// DefaultMinRadius is the enclosing-circle radius a blob must exceed to
// count as a target.
const DefaultMinRadius = 10.0

// ErrOutOfBounds is returned by SampleAt for a coordinate outside the frame.
var ErrOutOfBounds = errors.New("pixel coordinate out of bounds")

// Detector reduces a color mask to at most one target. It keeps no state
// between calls.
type Detector struct {
	MinRadius float64
}

// NewDetector returns a Detector that drops blobs with a radius of
// minRadius or less.
func NewDetector(minRadius float64) *Detector {
	if minRadius < 0 {
		minRadius = DefaultMinRadius
	}
	return &Detector{MinRadius: minRadius}
}

// Detect masks hsvFrame with r, picks the external contour with the
// largest area and fits its minimum enclosing circle. It returns nil when
// nothing passes the radius filter. On equal areas the first contour
// found wins.
func (d *Detector) Detect(hsvFrame gocv.Mat, r hsv.ColorRange) *types.Target {
	if hsvFrame.Empty() {
		return nil
	}

	mask := r.BuildMask(hsvFrame)
	defer mask.Close()

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return nil
	}

	best := -1
	bestArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			bestArea = area
			best = i
		}
	}

	x, y, radius := gocv.MinEnclosingCircle(contours.At(best))
	if float64(radius) <= d.MinRadius {
		logrus.WithFields(logrus.Fields{
			"radius":    radius,
			"minRadius": d.MinRadius,
			"contours":  contours.Size(),
		}).Trace("largest blob below radius threshold")
		return nil
	}

	return &types.Target{
		X:      float64(x),
		Y:      float64(y),
		Radius: float64(radius),
	}
}

// SampleAt reads the HSV pixel at column x, row y.
func SampleAt(hsvFrame gocv.Mat, x, y int) (hsv.Sample, error) {
	if hsvFrame.Empty() {
		return hsv.Sample{}, fmt.Errorf("%w: empty frame", ErrOutOfBounds)
	}
	if hsvFrame.Channels() != 3 {
		return hsv.Sample{}, fmt.Errorf("expected a 3-channel frame, got %d channels", hsvFrame.Channels())
	}
	if x < 0 || y < 0 || x >= hsvFrame.Cols() || y >= hsvFrame.Rows() {
		return hsv.Sample{}, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, x, y, hsvFrame.Cols(), hsvFrame.Rows())
	}

	return hsv.Sample{
		H: int(hsvFrame.GetUCharAt(y, x*3)),
		S: int(hsvFrame.GetUCharAt(y, x*3+1)),
		V: int(hsvFrame.GetUCharAt(y, x*3+2)),
	}, nil
}
