package daemon

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ajcalinisan/roboticscamp2025/pkg/calibration"
	"github.com/ajcalinisan/roboticscamp2025/pkg/events"
	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
	"github.com/ajcalinisan/roboticscamp2025/pkg/vision"
)

// ErrNoFrame is returned when a pixel is requested before the first frame.
var ErrNoFrame = errors.New("no frame captured yet")

// SamplePixel reads the HSV value at (x, y) of the last frame and feeds it
// to the calibrator.
func (c *Controller) SamplePixel(x, y int) (*types.SampleResponse, error) {
	c.mu.RLock()
	if c.lastHSV.Empty() {
		c.mu.RUnlock()
		return nil, ErrNoFrame
	}
	s, err := vision.SampleAt(c.lastHSV, x, y)
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	return c.addSample(s, &x, &y)
}

// AddSample feeds a raw HSV sample to the calibrator.
func (c *Controller) AddSample(s hsv.Sample) (*types.SampleResponse, error) {
	return c.addSample(s, nil, nil)
}

func (c *Controller) addSample(s hsv.Sample, x, y *int) (*types.SampleResponse, error) {
	res, err := c.calib.Add(s)
	if err != nil {
		return nil, err
	}

	st := c.calib.Status()
	collected := st.Collected
	if res != nil {
		collected = len(res.Samples)
	}
	c.hub.Publish(events.CalibrationSample, events.CalibrationSampleEvent{
		Sample:    s,
		X:         x,
		Y:         y,
		Collected: collected,
		Required:  st.Required,
		Ts:        time.Now().Unix(),
	})

	resp := &types.SampleResponse{Sample: s, Status: st, Result: res}
	if res == nil {
		return resp, nil
	}

	if err := c.applyCalibration(res); err != nil {
		resp.SaveError = err.Error()
	}
	resp.Status = c.calib.Status()
	return resp, nil
}

// applyCalibration makes res the active range and persists it. A failed
// save is returned but the new range stays in use.
func (c *Controller) applyCalibration(res *calibration.Result) error {
	c.mu.Lock()
	name := c.profileName
	c.colorRange = res.Range
	c.mu.Unlock()

	center := res.Center
	saveErr := c.store.Save(name, res.Range, &center)
	if saveErr != nil {
		logrus.WithError(saveErr).WithField("profile", name).Error("failed to persist calibration, keeping it in memory")
	}

	ev := events.CalibrationCompleteEvent{
		Profile: name,
		Range:   res.Range,
		Center:  res.Center,
		Saved:   saveErr == nil,
		Ts:      time.Now().Unix(),
	}
	if saveErr != nil {
		ev.SaveError = saveErr.Error()
	}
	c.hub.Publish(events.CalibrationComplete, ev)

	return saveErr
}

// SetRange validates and installs r for the active profile, then persists
// it. As with calibration, a failed save leaves r in use.
func (c *Controller) SetRange(r hsv.ColorRange) (*types.RangeResponse, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	name := c.profileName
	c.colorRange = r
	c.mu.Unlock()

	resp := &types.RangeResponse{Profile: name, Range: r, Wraps: r.Wraps()}
	if err := c.store.Save(name, r, nil); err != nil {
		logrus.WithError(err).WithField("profile", name).Error("failed to persist range, keeping it in memory")
		resp.SaveError = err.Error()
	}

	logrus.WithFields(logrus.Fields{"profile": name, "range": r.String()}).Info("color range set")
	return resp, nil
}

// CalibrationStatus returns the accumulator state.
func (c *Controller) CalibrationStatus() calibration.Status {
	return c.calib.Status()
}

// ResetCalibration drops pending samples.
func (c *Controller) ResetCalibration() {
	c.calib.Reset()
	logrus.Info("calibration samples cleared")
}
