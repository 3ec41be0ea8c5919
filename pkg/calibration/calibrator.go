package calibration

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
)

// ErrInsufficientSamples is returned when a range is requested before
// enough samples were collected. Callers should treat it as "not yet".
var ErrInsufficientSamples = errors.New("insufficient calibration samples")

// MeanSample averages samples. Hue is an angle on a 180-unit ring, so it is
// doubled into degrees, averaged as a unit vector and mapped back; hues 179
// and 1 average to 0, not 90. Saturation and value are arithmetic means.
func MeanSample(samples []hsv.Sample) hsv.Sample {
	if len(samples) == 0 {
		return hsv.Sample{}
	}

	angles := make([]float64, len(samples))
	sats := make([]float64, len(samples))
	vals := make([]float64, len(samples))
	for i, s := range samples {
		angles[i] = float64(s.H) * (2 * math.Pi / hsv.HueRing)
		sats[i] = float64(s.S)
		vals[i] = float64(s.V)
	}

	angle := stat.CircularMean(angles, nil)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	// Halves round to even: a mean of 110.5 becomes 110.
	h := int(math.RoundToEven(angle*hsv.HueRing/(2*math.Pi))) % hsv.HueRing

	return hsv.Sample{
		H: h,
		S: int(math.RoundToEven(stat.Mean(sats, nil))),
		V: int(math.RoundToEven(stat.Mean(vals, nil))),
	}
}

// FromSamples computes the centered, tolerance-expanded range for samples.
// It fails with ErrInsufficientSamples when len(samples) < minSamples.
func FromSamples(samples []hsv.Sample, minSamples int, tol Tolerances) (hsv.ColorRange, hsv.Sample, error) {
	if minSamples < 1 {
		minSamples = 1
	}
	if len(samples) < minSamples {
		return hsv.ColorRange{}, hsv.Sample{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientSamples, len(samples), minSamples)
	}

	center := MeanSample(samples)
	return hsv.FromCenter(center, tol.Hue, tol.Saturation, tol.Value), center, nil
}

// Calibrator accumulates samples across separate click events. When the
// required count is reached it computes a Result and clears the batch.
type Calibrator struct {
	mu           sync.Mutex
	required     int
	tol          Tolerances
	pending      []hsv.Sample
	lastCenter   *hsv.Sample
	calibratedAt time.Time
}

// New returns a Calibrator that fires every required samples.
func New(required int, tol Tolerances) *Calibrator {
	if required < 1 {
		required = DefaultSampleCount
	}
	return &Calibrator{
		required: required,
		tol:      tol,
	}
}

// SetLastCenter records a previously persisted center, for status only.
func (c *Calibrator) SetLastCenter(center *hsv.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCenter = center
}

// Configure changes the threshold and tolerances. Pending samples are kept.
func (c *Calibrator) Configure(required int, tol Tolerances) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if required >= 1 {
		c.required = required
	}
	c.tol = tol
}

// Add appends s to the batch. It returns nil until the batch is complete,
// then the computed Result.
func (c *Calibrator) Add(s hsv.Sample) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sample: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, s)
	logrus.WithFields(logrus.Fields{
		"sample":    s.String(),
		"collected": len(c.pending),
		"required":  c.required,
	}).Info("calibration sample collected")

	r, center, err := FromSamples(c.pending, c.required, c.tol)
	if errors.Is(err, ErrInsufficientSamples) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res := &Result{
		Range:   r,
		Center:  center,
		Samples: c.pending,
	}
	c.pending = nil
	c.lastCenter = &center
	c.calibratedAt = time.Now()

	logrus.WithFields(logrus.Fields{
		"center": center.String(),
		"range":  r.String(),
	}).Info("calibration complete")

	return res, nil
}

// Reset drops the pending batch.
func (c *Calibrator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// Status returns a snapshot of the accumulator.
func (c *Calibrator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Collected:    len(c.pending),
		Required:     c.required,
		CalibratedAt: c.calibratedAt,
		Tolerances:   c.tol,
	}
	if len(c.pending) > 0 {
		st.Pending = append([]hsv.Sample(nil), c.pending...)
	}
	if c.lastCenter != nil {
		center := *c.lastCenter
		st.LastCenter = &center
	}
	return st
}
