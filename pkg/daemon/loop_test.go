package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ajcalinisan/roboticscamp2025/pkg/calibration"
	"github.com/ajcalinisan/roboticscamp2025/pkg/camera"
	"github.com/ajcalinisan/roboticscamp2025/pkg/events"
	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/motor"
	"github.com/ajcalinisan/roboticscamp2025/pkg/policy"
	"github.com/ajcalinisan/roboticscamp2025/pkg/profile"
)

// greenRange accepts pure BGR green, which converts to HSV (60,255,255).
var greenRange = hsv.ColorRange{
	Lower: hsv.Sample{H: 50, S: 100, V: 100},
	Upper: hsv.Sample{H: 70, S: 255, V: 255},
}

// ballFrame returns a 640x480 BGR frame with a green disc, or a blank one
// when r is zero.
func ballFrame(cx, cy, r int) gocv.Mat {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if r == 0 || x < 0 || y < 0 || x >= 640 || y >= 480 {
				continue
			}
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				m.SetUCharAt(y, x*3+1, 255)
			}
		}
	}
	return m
}

type fakeSource struct {
	mu     sync.Mutex
	frames []gocv.Mat
	next   int
	panics bool
	closed bool
}

func (s *fakeSource) Read(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panics {
		panic("camera exploded")
	}
	if s.next >= len(s.frames) {
		return fmt.Errorf("%w: end of test frames", camera.ErrAcquisition)
	}
	s.frames[s.next].CopyTo(dst)
	s.next++
	return nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.frames {
		_ = f.Close()
	}
	s.closed = true
	return nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved map[string]profile.Profile
	err   error
}

func (s *fakeStore) Load(name string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.saved[name]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return &p, nil
}

func (s *fakeStore) Save(name string, r hsv.ColorRange, center *hsv.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = map[string]profile.Profile{}
	}
	s.saved[name] = profile.Profile{Name: name, Range: r, ClickedCenter: center}
	return nil
}

// recordExecute replaces the motor executor with one that applies the
// velocities without sleeping and records every command.
func recordExecute(t *testing.T) *[]motor.Command {
	t.Helper()
	var cmds []motor.Command
	orig := execute
	execute = func(ctx context.Context, d motor.Driver, cmd motor.Command) error {
		cmds = append(cmds, cmd)
		if err := d.SetVelocity(motor.Left, cmd.Left); err != nil {
			return err
		}
		return d.SetVelocity(motor.Right, cmd.Right)
	}
	t.Cleanup(func() { execute = orig })
	return &cmds
}

func newTestController(src *fakeSource, drv *motor.Mock, st profile.Store, hub *events.EventHub) *Controller {
	return NewController(Options{
		Source:       src,
		Driver:       drv,
		Store:        st,
		Hub:          hub,
		Profile:      "green",
		Range:        greenRange,
		Params:       policy.DefaultParams(),
		MinRadius:    10,
		Samples:      3,
		Tolerances:   calibration.DefaultTolerances(),
		DriveEnabled: true,
	})
}

func TestController_Tick(t *testing.T) {
	cmds := recordExecute(t)

	src := &fakeSource{frames: []gocv.Mat{
		ballFrame(0, 0, 0),
		ballFrame(320, 240, 5),
		ballFrame(100, 240, 20),
		ballFrame(300, 240, 20),
		ballFrame(320, 240, 50),
	}}
	drv := motor.NewMock()
	hub := events.NewEventHub()
	sub := hub.Subscribe()
	c := newTestController(src, drv, &fakeStore{}, hub)
	defer c.Close()

	want := []struct {
		state  policy.State
		action policy.Action
	}{
		{policy.Searching, policy.ActionSpin},
		{policy.Searching, policy.ActionSpin},
		{policy.Aligning, policy.ActionTurnLeft},
		{policy.Approaching, policy.ActionForward},
		{policy.Pushing, policy.ActionPush},
	}
	for i, w := range want {
		if err := c.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		st := c.Status()
		if st.State != string(w.state) || st.Action != string(w.action) {
			t.Errorf("tick %d: status %s/%s, want %s/%s", i, st.State, st.Action, w.state, w.action)
		}
		if st.Ticks != uint64(i+1) {
			t.Errorf("tick %d: ticks = %d", i, st.Ticks)
		}
	}

	if len(*cmds) != len(want) {
		t.Fatalf("executed %d commands, want %d", len(*cmds), len(want))
	}
	if push := (*cmds)[4]; push.Hold != policy.DefaultParams().PushHold {
		t.Errorf("push hold = %s", push.Hold)
	}

	// Searching -> Aligning -> Approaching -> Pushing.
	var transitions []string
	for len(sub) > 0 {
		ev := <-sub
		if ev.Name != events.ControllerState {
			continue
		}
		p, err := events.DecodeAs[events.ControllerStateEvent](ev)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		transitions = append(transitions, p.To)
	}
	if fmt.Sprint(transitions) != "[ALIGNING APPROACHING PUSHING]" {
		t.Errorf("transitions = %v", transitions)
	}
}

func TestController_RunStopsOnAcquisitionFailure(t *testing.T) {
	recordExecute(t)

	src := &fakeSource{frames: []gocv.Mat{ballFrame(300, 240, 20)}}
	drv := motor.NewMock()
	c := newTestController(src, drv, &fakeStore{}, nil)
	defer c.Close()

	err := c.Run(context.Background())
	if !errors.Is(err, camera.ErrAcquisition) {
		t.Fatalf("Run() error = %v, want ErrAcquisition", err)
	}
	if l, r := drv.Velocities(); l != 0 || r != 0 {
		t.Fatalf("motors left running at (%v, %v)", l, r)
	}
	if drv.Stops() == 0 {
		t.Fatalf("motors were never stopped")
	}
}

func TestController_RunHonoursCancel(t *testing.T) {
	recordExecute(t)

	src := &fakeSource{frames: []gocv.Mat{ballFrame(300, 240, 20)}}
	drv := motor.NewMock()
	c := newTestController(src, drv, &fakeStore{}, nil)
	defer c.Close()

	// A tick from before Run must not count toward its loop rate.
	c.recorder.AddRecordNow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run() = %v, want nil on cancel", err)
	}
	if st := c.Status(); st.RecentTicks != 0 || !st.LastTickAt.IsZero() {
		t.Fatalf("status after Run = %d recent ticks, last at %s; want none", st.RecentTicks, st.LastTickAt)
	}
	if src.next != 0 {
		t.Fatalf("a frame was read after cancellation")
	}
	if drv.Stops() != 1 {
		t.Fatalf("Stops() = %d, want 1", drv.Stops())
	}
}

func TestController_RunStopsMotorsOnPanic(t *testing.T) {
	recordExecute(t)

	src := &fakeSource{panics: true}
	drv := motor.NewMock()
	_ = drv.SetVelocity(motor.Left, 1)
	c := newTestController(src, drv, &fakeStore{}, nil)
	defer c.Close()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("panic was swallowed")
		}
		if l, _ := drv.Velocities(); l != 0 {
			t.Fatalf("motors not stopped after panic")
		}
	}()
	_ = c.Run(context.Background())
}

func TestController_DriveDisabled(t *testing.T) {
	cmds := recordExecute(t)

	src := &fakeSource{frames: []gocv.Mat{ballFrame(300, 240, 20), ballFrame(300, 240, 20)}}
	drv := motor.NewMock()
	c := newTestController(src, drv, &fakeStore{}, nil)
	defer c.Close()

	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if l, r := drv.Velocities(); l == 0 || r == 0 {
		t.Fatalf("expected forward motion, got (%v, %v)", l, r)
	}

	if err := c.SetDriveEnabled(false); err != nil {
		t.Fatal(err)
	}
	if l, r := drv.Velocities(); l != 0 || r != 0 {
		t.Fatalf("disabling drive did not stop motors: (%v, %v)", l, r)
	}

	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(*cmds) != 1 {
		t.Fatalf("executed %d commands, want 1", len(*cmds))
	}
	if st := c.Status(); st.State != string(policy.Approaching) || st.DriveEnabled {
		t.Fatalf("status = %+v", st)
	}
}

func TestController_Reconfigure(t *testing.T) {
	recordExecute(t)

	src := &fakeSource{frames: []gocv.Mat{ballFrame(300, 240, 20)}}
	c := newTestController(src, motor.NewMock(), &fakeStore{}, nil)
	defer c.Close()

	p := policy.DefaultParams()
	p.NearRadius = 15
	c.Reconfigure(Settings{Params: p, MinRadius: 10, Samples: 3, Tolerances: calibration.DefaultTolerances()})

	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st := c.Status(); st.State != string(policy.Pushing) {
		t.Fatalf("new nearRadius not applied, state %s", st.State)
	}
}
