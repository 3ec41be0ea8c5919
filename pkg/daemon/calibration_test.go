package daemon

import (
	"context"
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ajcalinisan/roboticscamp2025/pkg/events"
	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/motor"
	"github.com/ajcalinisan/roboticscamp2025/pkg/vision"
)

func TestController_SamplePixelCalibrates(t *testing.T) {
	recordExecute(t)

	src := &fakeSource{frames: []gocv.Mat{ballFrame(200, 200, 30)}}
	st := &fakeStore{}
	hub := events.NewEventHub()
	sub := hub.Subscribe()
	c := newTestController(src, motor.NewMock(), st, hub)
	defer c.Close()

	if _, err := c.SamplePixel(200, 200); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("sampling before the first frame: err = %v, want ErrNoFrame", err)
	}

	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i, p := range [][2]int{{200, 200}, {190, 195}} {
		resp, err := c.SamplePixel(p[0], p[1])
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if resp.Result != nil {
			t.Fatalf("sample %d completed the batch early", i)
		}
		if resp.Status.Collected != i+1 {
			t.Fatalf("sample %d: collected = %d", i, resp.Status.Collected)
		}
		if resp.Sample != (hsv.Sample{H: 60, S: 255, V: 255}) {
			t.Fatalf("sample %d = %s, want (60,255,255)", i, resp.Sample)
		}
	}

	resp, err := c.SamplePixel(210, 205)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Result == nil {
		t.Fatalf("third sample should complete calibration")
	}
	if resp.SaveError != "" {
		t.Fatalf("unexpected save error %q", resp.SaveError)
	}
	want := hsv.ColorRange{
		Lower: hsv.Sample{H: 50, S: 195, V: 195},
		Upper: hsv.Sample{H: 70, S: 255, V: 255},
	}
	if _, r := c.Range(); r != want {
		t.Fatalf("active range = %s, want %s", r, want)
	}
	if resp.Status.Collected != 0 {
		t.Fatalf("accumulator not reset: %+v", resp.Status)
	}

	saved, err := st.Load("green")
	if err != nil {
		t.Fatalf("profile not saved: %v", err)
	}
	if saved.Range != want || saved.ClickedCenter == nil || saved.ClickedCenter.H != 60 {
		t.Fatalf("saved profile = %+v", saved)
	}

	var samples, completes int
	for len(sub) > 0 {
		switch ev := <-sub; ev.Name {
		case events.CalibrationSample:
			samples++
		case events.CalibrationComplete:
			completes++
			p, _ := events.DecodeAs[events.CalibrationCompleteEvent](ev)
			if !p.Saved || p.Range != want {
				t.Errorf("complete event = %+v", p)
			}
		}
	}
	if samples != 3 || completes != 1 {
		t.Fatalf("events: %d samples, %d completes", samples, completes)
	}
}

func TestController_SamplePixelOutOfBounds(t *testing.T) {
	recordExecute(t)

	src := &fakeSource{frames: []gocv.Mat{ballFrame(0, 0, 0)}}
	c := newTestController(src, motor.NewMock(), &fakeStore{}, nil)
	defer c.Close()

	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SamplePixel(640, 10); !errors.Is(err, vision.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
	if st := c.CalibrationStatus(); st.Collected != 0 {
		t.Fatalf("rejected pixel was collected")
	}
}

func TestController_SaveFailureKeepsRange(t *testing.T) {
	st := &fakeStore{err: errors.New("disk full")}
	c := newTestController(&fakeSource{}, motor.NewMock(), st, nil)
	defer c.Close()

	var last hsv.Sample
	for _, s := range []hsv.Sample{{H: 2, S: 200, V: 200}, {H: 178, S: 200, V: 200}, {H: 0, S: 200, V: 200}} {
		resp, err := c.AddSample(s)
		if err != nil {
			t.Fatal(err)
		}
		last = resp.Sample
		if resp.Result != nil {
			if resp.SaveError == "" {
				t.Fatalf("save error not reported")
			}
		}
	}
	if last.H != 0 {
		t.Fatalf("unexpected last sample %s", last)
	}

	_, r := c.Range()
	if !r.Wraps() || !r.Contains(hsv.Sample{H: 179, S: 200, V: 200}) {
		t.Fatalf("calibrated range %s should wrap around red", r)
	}
}

func TestController_SetRange(t *testing.T) {
	st := &fakeStore{}
	c := newTestController(&fakeSource{}, motor.NewMock(), st, nil)
	defer c.Close()

	bad := hsv.ColorRange{Lower: hsv.Sample{H: 10, S: 200}, Upper: hsv.Sample{H: 20, S: 100, V: 255}}
	if _, err := c.SetRange(bad); err == nil {
		t.Fatalf("expected an error for an inverted saturation range")
	}
	if _, r := c.Range(); r != greenRange {
		t.Fatalf("range changed after a rejected update")
	}

	red := hsv.ColorRange{Lower: hsv.Sample{H: 172, S: 130, V: 50}, Upper: hsv.Sample{H: 3, S: 247, V: 255}}
	resp, err := c.SetRange(red)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Wraps || resp.Profile != "green" {
		t.Fatalf("response = %+v", resp)
	}
	if p, err := st.Load("green"); err != nil || p.Range != red {
		t.Fatalf("range not persisted: %+v, %v", p, err)
	}
}

func TestController_SwitchProfileDropsSamples(t *testing.T) {
	c := newTestController(&fakeSource{}, motor.NewMock(), &fakeStore{}, nil)
	defer c.Close()

	if _, err := c.AddSample(hsv.Sample{H: 60, S: 200, V: 200}); err != nil {
		t.Fatal(err)
	}
	c.SwitchProfile("red", hsv.ColorRange{Lower: hsv.Sample{H: 172}, Upper: hsv.Sample{H: 178, S: 255, V: 255}}, nil)

	if name, _ := c.Range(); name != "red" {
		t.Fatalf("profile = %q", name)
	}
	if st := c.CalibrationStatus(); st.Collected != 0 {
		t.Fatalf("pending samples survived a profile switch")
	}
}
