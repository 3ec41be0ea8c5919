package calibration

import (
	"errors"
	"testing"

	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
)

func hueDistance(a, b int) int {
	d := (a - b) % hsv.HueRing
	if d < 0 {
		d += hsv.HueRing
	}
	if d > hsv.HueRing/2 {
		d = hsv.HueRing - d
	}
	return d
}

func TestMeanSample_CircularHue(t *testing.T) {
	tests := []struct {
		name    string
		hues    []int
		wantHue int
	}{
		{"straddles zero", []int{179, 1, 0}, 0},
		{"pair around zero", []int{178, 2}, 0},
		{"plain", []int{30, 36, 42}, 36},
		{"near max", []int{170, 172, 174}, 172},
		{"single", []int{90}, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var samples []hsv.Sample
			for _, h := range tt.hues {
				samples = append(samples, hsv.Sample{H: h, S: 100, V: 100})
			}
			got := MeanSample(samples)
			if d := hueDistance(got.H, tt.wantHue); d > 1 {
				t.Errorf("MeanSample() hue = %d, want %d±1", got.H, tt.wantHue)
			}
			if got.H < 0 || got.H > hsv.HueMax {
				t.Errorf("MeanSample() hue %d out of domain", got.H)
			}
		})
	}
}

func TestMeanSample_LinearChannels(t *testing.T) {
	got := MeanSample([]hsv.Sample{
		{H: 10, S: 100, V: 200},
		{H: 10, S: 110, V: 210},
		{H: 10, S: 121, V: 221},
	})
	// (100+110+121)/3 = 110.33, (200+210+221)/3 = 210.33
	if got.S != 110 || got.V != 210 {
		t.Fatalf("MeanSample() = %s, want S=110 V=210", got)
	}
}

func TestMeanSample_HalvesRoundToEven(t *testing.T) {
	tests := []struct {
		name         string
		s1, s2       int
		wantS, wantV int
	}{
		{"110.5 rounds down", 110, 111, 110, 110},
		{"111.5 rounds up", 111, 112, 112, 112},
		{"no tie", 100, 104, 102, 102},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanSample([]hsv.Sample{
				{H: 60, S: tt.s1, V: tt.s1},
				{H: 60, S: tt.s2, V: tt.s2},
			})
			if got.S != tt.wantS || got.V != tt.wantV {
				t.Errorf("MeanSample() = %s, want S=%d V=%d", got, tt.wantS, tt.wantV)
			}
		})
	}
}

func TestFromSamples(t *testing.T) {
	samples := []hsv.Sample{
		{H: 179, S: 200, V: 180},
		{H: 1, S: 210, V: 190},
		{H: 0, S: 220, V: 200},
	}

	_, _, err := FromSamples(samples[:2], 3, DefaultTolerances())
	if !errors.Is(err, ErrInsufficientSamples) {
		t.Fatalf("expected ErrInsufficientSamples, got %v", err)
	}

	r, center, err := FromSamples(samples, 3, DefaultTolerances())
	if err != nil {
		t.Fatalf("FromSamples failed: %v", err)
	}
	if hueDistance(center.H, 0) > 1 {
		t.Errorf("center hue = %d, want ≈0", center.H)
	}
	if !r.Wraps() {
		t.Errorf("range %s should wrap around hue 0", r)
	}
	for _, s := range samples {
		if !r.Contains(s) {
			t.Errorf("range %s does not contain sample %s", r, s)
		}
	}
	if r.Contains(hsv.Sample{H: 90, S: 210, V: 190}) {
		t.Errorf("range %s should reject hue 90", r)
	}
}

func TestCalibrator_Accumulates(t *testing.T) {
	c := New(3, DefaultTolerances())

	for i, s := range []hsv.Sample{{H: 36, S: 200, V: 200}, {H: 37, S: 190, V: 210}} {
		res, err := c.Add(s)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if res != nil {
			t.Fatalf("expected no result after %d samples", i+1)
		}
		if st := c.Status(); st.Collected != i+1 || st.Required != 3 {
			t.Fatalf("status = %+v, want collected=%d required=3", st, i+1)
		}
	}

	res, err := c.Add(hsv.Sample{H: 38, S: 210, V: 190})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if res == nil {
		t.Fatalf("expected a result on the third sample")
	}
	if res.Center.H != 37 || res.Center.S != 200 || res.Center.V != 200 {
		t.Errorf("center = %s, want (37,200,200)", res.Center)
	}
	if len(res.Samples) != 3 {
		t.Errorf("result carries %d samples, want 3", len(res.Samples))
	}

	st := c.Status()
	if st.Collected != 0 {
		t.Errorf("accumulator not reset, collected=%d", st.Collected)
	}
	if st.LastCenter == nil || *st.LastCenter != res.Center {
		t.Errorf("last center = %v, want %s", st.LastCenter, res.Center)
	}
	if st.CalibratedAt.IsZero() {
		t.Errorf("calibratedAt should be set")
	}
}

func TestCalibrator_RejectsInvalidSample(t *testing.T) {
	c := New(3, DefaultTolerances())
	if _, err := c.Add(hsv.Sample{H: 200, S: 10, V: 10}); err == nil {
		t.Fatalf("expected an error for hue 200")
	}
	if st := c.Status(); st.Collected != 0 {
		t.Fatalf("invalid sample should not be collected, got %d", st.Collected)
	}
}

func TestCalibrator_Reset(t *testing.T) {
	c := New(2, DefaultTolerances())
	if _, err := c.Add(hsv.Sample{H: 10, S: 10, V: 10}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	c.Reset()
	if st := c.Status(); st.Collected != 0 || len(st.Pending) != 0 {
		t.Fatalf("Reset did not clear the batch: %+v", st)
	}
	res, err := c.Add(hsv.Sample{H: 10, S: 10, V: 10})
	if err != nil || res != nil {
		t.Fatalf("first sample after reset should not complete: res=%v err=%v", res, err)
	}
}
