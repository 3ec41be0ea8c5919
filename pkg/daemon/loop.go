package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ajcalinisan/roboticscamp2025/pkg/calibration"
	"github.com/ajcalinisan/roboticscamp2025/pkg/camera"
	"github.com/ajcalinisan/roboticscamp2025/pkg/events"
	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/motor"
	"github.com/ajcalinisan/roboticscamp2025/pkg/policy"
	"github.com/ajcalinisan/roboticscamp2025/pkg/profile"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
	"github.com/ajcalinisan/roboticscamp2025/pkg/vision"
)

// rateWindow is the span used for the reported loop rate.
const rateWindow = 5 * time.Second

// execute applies a motor command. Replaced in tests.
var execute = motor.Execute

// Options wires a Controller.
type Options struct {
	Source       camera.Source
	Driver       motor.Driver
	Store        profile.Store
	Hub          *events.EventHub
	Profile      string
	Range        hsv.ColorRange
	LastCenter   *hsv.Sample
	Params       policy.Params
	MinRadius    float64
	Flip         bool
	Samples      int
	Tolerances   calibration.Tolerances
	DriveEnabled bool
}

// Settings are the parts of Options that can change while running. They
// are applied at the top of the next tick.
type Settings struct {
	Params     policy.Params
	MinRadius  float64
	Flip       bool
	Samples    int
	Tolerances calibration.Tolerances
}

// Controller runs acquire, detect, decide, actuate on a single goroutine.
// HTTP handlers talk to it through its exported methods.
type Controller struct {
	source   camera.Source
	driver   motor.Driver
	store    profile.Store
	hub      *events.EventHub
	detector *vision.Detector
	policy   *policy.Policy
	calib    *calibration.Calibrator
	recorder *TimeSeriesRecorder

	// Loop-owned buffers.
	frame    gocv.Mat
	oriented gocv.Mat
	hsvFrame gocv.Mat
	flip     bool

	mu           sync.RWMutex
	profileName  string
	colorRange   hsv.ColorRange
	driveEnabled bool
	pending      *Settings
	execCancel   context.CancelFunc
	lastHSV      gocv.Mat
	lastFrame    gocv.Mat
	last         policy.Decision
	lastTarget   *types.Target
	ticks        uint64
	startedAt    time.Time
	closed       bool
}

// NewController returns a Controller. It owns source and driver from now
// on; Close releases them.
func NewController(o Options) *Controller {
	c := &Controller{
		source:       o.Source,
		driver:       o.Driver,
		store:        o.Store,
		hub:          o.Hub,
		detector:     vision.NewDetector(o.MinRadius),
		policy:       policy.New(o.Params),
		calib:        calibration.New(o.Samples, o.Tolerances),
		recorder:     NewTimeSeriesRecorder(120),
		frame:        gocv.NewMat(),
		oriented:     gocv.NewMat(),
		hsvFrame:     gocv.NewMat(),
		lastHSV:      gocv.NewMat(),
		lastFrame:    gocv.NewMat(),
		flip:         o.Flip,
		profileName:  o.Profile,
		colorRange:   o.Range,
		driveEnabled: o.DriveEnabled,
		last:         policy.Decision{State: policy.Searching},
		startedAt:    time.Now(),
	}
	c.calib.SetLastCenter(o.LastCenter)
	return c
}

// Run loops until ctx is done or the frame source fails. The motors are
// stopped on every exit path, including a panic, which is re-raised.
func (c *Controller) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.stopMotors("panic")
			panic(r)
		}
		c.stopMotors("control loop exited")
	}()

	logrus.Info("control loop starts")
	// Loop rate covers this run only.
	c.recorder.ClearRecords()

	for {
		if ctx.Err() != nil {
			logrus.Info("control loop interrupted")
			return nil
		}

		if err := c.Tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			logrus.WithError(err).Error("control loop failed")
			return err
		}
	}
}

// Tick runs one iteration. Only frame acquisition errors and ctx
// cancellation are returned; motor errors are logged.
func (c *Controller) Tick(ctx context.Context) error {
	c.applyPending()

	if err := c.source.Read(&c.frame); err != nil {
		if !errors.Is(err, camera.ErrAcquisition) {
			err = fmt.Errorf("%w: %v", camera.ErrAcquisition, err)
		}
		return err
	}
	camera.Preprocess(c.frame, c.flip, &c.oriented, &c.hsvFrame)

	c.mu.RLock()
	r := c.colorRange
	c.mu.RUnlock()

	target := c.detector.Detect(c.hsvFrame, r)
	prev := c.policy.State()
	d := c.policy.Step(target)

	c.record(d, target)
	c.report(prev, d, target)

	execCtx, drive := c.beginExecute(ctx)
	if !drive {
		return nil
	}
	err := execute(execCtx, c.driver, d.Command)
	interrupted := execCtx.Err() != nil
	c.endExecute()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if interrupted {
		// Drive was disabled mid-command.
		if err := c.driver.Stop(); err != nil {
			logrus.WithError(err).Error("failed to stop motors")
		}
		return nil
	}
	if err != nil {
		logrus.WithError(err).WithField("command", d.Command.String()).Error("failed to apply motor command")
	}
	return nil
}

func (c *Controller) record(d policy.Decision, target *types.Target) {
	c.recorder.AddRecordNow()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.hsvFrame.CopyTo(&c.lastHSV)
	c.oriented.CopyTo(&c.lastFrame)
	c.last = d
	c.lastTarget = target
	c.ticks++
}

var lastLoggedDecision policy.Decision

// report logs the decision at Debug when it changed, Trace otherwise, and
// publishes state changes.
func (c *Controller) report(prev policy.State, d policy.Decision, target *types.Target) {
	fields := logrus.Fields{
		"state":    d.State,
		"action":   d.Action,
		"command":  d.Command.String(),
		"blocking": d.Command.Blocking(),
	}
	if target != nil {
		fields["target"] = target.String()
	}

	if d == lastLoggedDecision {
		logrus.WithFields(fields).Trace("control loop status")
	} else {
		logrus.WithFields(fields).Debug("control loop status")
		lastLoggedDecision = d
	}

	if prev != d.State {
		c.hub.Publish(events.ControllerState, events.ControllerStateEvent{
			From:   string(prev),
			To:     string(d.State),
			Action: string(d.Action),
			Target: target,
			Ts:     time.Now().Unix(),
		})
	}
}

func (c *Controller) beginExecute(ctx context.Context) (context.Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.driveEnabled {
		return ctx, false
	}
	execCtx, cancel := context.WithCancel(ctx)
	c.execCancel = cancel
	return execCtx, true
}

func (c *Controller) endExecute() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.execCancel != nil {
		c.execCancel()
		c.execCancel = nil
	}
}

func (c *Controller) applyPending() {
	c.mu.Lock()
	s := c.pending
	c.pending = nil
	c.mu.Unlock()

	if s == nil {
		return
	}
	c.policy.SetParams(s.Params)
	c.detector.MinRadius = s.MinRadius
	c.flip = s.Flip
	c.calib.Configure(s.Samples, s.Tolerances)
	logrus.WithField("params", s.Params).Info("controller settings applied")
}

func (c *Controller) stopMotors(reason string) {
	if err := c.driver.Stop(); err != nil {
		logrus.WithError(err).WithField("reason", reason).Error("failed to stop motors")
		return
	}
	logrus.WithField("reason", reason).Info("motors stopped")
}

// Reconfigure schedules new settings for the next tick.
func (c *Controller) Reconfigure(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &s
}

// SetDriveEnabled toggles motor output. Disabling interrupts the command
// in progress and stops the motors immediately.
func (c *Controller) SetDriveEnabled(enabled bool) error {
	c.mu.Lock()
	c.driveEnabled = enabled
	if !enabled && c.execCancel != nil {
		c.execCancel()
	}
	c.mu.Unlock()

	if !enabled {
		return c.driver.Stop()
	}
	return nil
}

// DriveEnabled reports whether motor output is enabled.
func (c *Controller) DriveEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.driveEnabled
}

// Range returns the active profile name and range.
func (c *Controller) Range() (string, hsv.ColorRange) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profileName, c.colorRange
}

// SwitchProfile replaces the profile name and range, dropping any pending
// calibration samples.
func (c *Controller) SwitchProfile(name string, r hsv.ColorRange, lastCenter *hsv.Sample) {
	c.mu.Lock()
	c.profileName = name
	c.colorRange = r
	c.mu.Unlock()

	c.calib.Reset()
	c.calib.SetLastCenter(lastCenter)
	logrus.WithFields(logrus.Fields{"profile": name, "range": r.String()}).Info("profile switched")
}

// Status returns a snapshot for the status API.
func (c *Controller) Status() types.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := types.Status{
		State:        string(c.last.State),
		Action:       string(c.last.Action),
		Left:         c.last.Command.Left,
		Right:        c.last.Command.Right,
		DriveEnabled: c.driveEnabled,
		Profile:      c.profileName,
		Range:        c.colorRange,
		Calibration:  c.calib.Status(),
		Ticks:        c.ticks,
		TicksPerSec:  c.recorder.Rate(rateWindow),
		RecentTicks:  c.recorder.GetRecordsIn(rateWindow),
		LastTickAt:   c.recorder.GetLastRecord(),
		StartedAt:    c.startedAt,
	}
	if c.lastTarget != nil {
		t := *c.lastTarget
		st.Target = &t
	}
	return st
}

// SnapshotJPEG encodes the last oriented BGR frame, or its mask for the
// active range when mask is set.
func (c *Controller) SnapshotJPEG(mask bool) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !mask {
		return camera.EncodeJPEG(c.lastFrame)
	}
	if c.lastHSV.Empty() {
		return nil, errors.New("no frame captured yet")
	}
	m := c.colorRange.BuildMask(c.lastHSV)
	defer m.Close()
	return camera.EncodeJPEG(m)
}

// Close releases frame buffers, the source and the driver. It must be
// called after Run returned.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if err := c.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close frame source: %w", err))
	}
	if err := c.driver.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close motor driver: %w", err))
	}
	for _, m := range []*gocv.Mat{&c.frame, &c.oriented, &c.hsvFrame, &c.lastHSV, &c.lastFrame} {
		_ = m.Close()
	}
	return errors.Join(errs...)
}
