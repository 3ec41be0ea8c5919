package hsv

import (
	"testing"
)

func TestColorRange_Contains(t *testing.T) {
	wrapped := ColorRange{
		Lower: Sample{H: 175, S: 100, V: 100},
		Upper: Sample{H: 5, S: 255, V: 255},
	}
	plain := ColorRange{
		Lower: Sample{H: 30, S: 140, V: 140},
		Upper: Sample{H: 43, S: 247, V: 255},
	}

	tests := []struct {
		name   string
		r      ColorRange
		sample Sample
		want   bool
	}{
		{"wrapped upper half", wrapped, Sample{H: 178, S: 200, V: 200}, true},
		{"wrapped lower half", wrapped, Sample{H: 3, S: 200, V: 200}, true},
		{"wrapped boundary 179", wrapped, Sample{H: 179, S: 200, V: 200}, true},
		{"wrapped boundary 0", wrapped, Sample{H: 0, S: 200, V: 200}, true},
		{"wrapped opposite hue", wrapped, Sample{H: 90, S: 200, V: 200}, false},
		{"wrapped just outside", wrapped, Sample{H: 6, S: 200, V: 200}, false},
		{"wrapped low saturation", wrapped, Sample{H: 178, S: 50, V: 200}, false},
		{"plain inside", plain, Sample{H: 36, S: 200, V: 200}, true},
		{"plain outside hue", plain, Sample{H: 50, S: 200, V: 200}, false},
		{"plain inclusive lower", plain, Sample{H: 30, S: 140, V: 140}, true},
		{"plain inclusive upper", plain, Sample{H: 43, S: 247, V: 255}, true},
		{"plain value too low", plain, Sample{H: 36, S: 200, V: 100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(tt.sample); got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.sample, got, tt.want)
			}
		})
	}
}

func TestFromCenter(t *testing.T) {
	tests := []struct {
		name      string
		center    Sample
		want      ColorRange
		wantWraps bool
	}{
		{
			name:   "mid hue",
			center: Sample{H: 36, S: 190, V: 200},
			want: ColorRange{
				Lower: Sample{H: 26, S: 130, V: 140},
				Upper: Sample{H: 46, S: 250, V: 255},
			},
		},
		{
			name:   "hue near zero wraps",
			center: Sample{H: 2, S: 30, V: 250},
			want: ColorRange{
				Lower: Sample{H: 172, S: 0, V: 190},
				Upper: Sample{H: 12, S: 90, V: 255},
			},
			wantWraps: true,
		},
		{
			name:   "hue near max wraps",
			center: Sample{H: 175, S: 128, V: 128},
			want: ColorRange{
				Lower: Sample{H: 165, S: 68, V: 68},
				Upper: Sample{H: 5, S: 188, V: 188},
			},
			wantWraps: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromCenter(tt.center, 10, 60, 60)
			if got != tt.want {
				t.Errorf("FromCenter() = %s, want %s", got, tt.want)
			}
			if got.Wraps() != tt.wantWraps {
				t.Errorf("Wraps() = %v, want %v", got.Wraps(), tt.wantWraps)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("FromCenter() produced invalid range: %v", err)
			}
			if !got.Contains(tt.center) {
				t.Errorf("range %s does not contain its own center %s", got, tt.center)
			}
		})
	}
}

func TestFromCenter_Idempotent(t *testing.T) {
	c := Sample{H: 178, S: 20, V: 240}
	a := FromCenter(c, 10, 60, 60)
	b := FromCenter(c, 10, 60, 60)
	if a != b {
		t.Fatalf("FromCenter is not deterministic: %s vs %s", a, b)
	}
}

func TestColorRange_Split(t *testing.T) {
	r := ColorRange{
		Lower: Sample{H: 175, S: 10, V: 20},
		Upper: Sample{H: 5, S: 200, V: 210},
	}
	parts := r.Split()
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Lower.H != 0 || parts[0].Upper.H != 5 {
		t.Errorf("unexpected first part %s", parts[0])
	}
	if parts[1].Lower.H != 175 || parts[1].Upper.H != HueMax {
		t.Errorf("unexpected second part %s", parts[1])
	}
	for _, p := range parts {
		if p.Wraps() {
			t.Errorf("part %s still wraps", p)
		}
		if p.Lower.S != 10 || p.Upper.S != 200 || p.Lower.V != 20 || p.Upper.V != 210 {
			t.Errorf("part %s lost S/V bounds", p)
		}
	}

	plain := ColorRange{Lower: Sample{H: 30}, Upper: Sample{H: 43, S: 255, V: 255}}
	if got := plain.Split(); len(got) != 1 || got[0] != plain {
		t.Errorf("non-wrapping range should split into itself, got %v", got)
	}
}

func TestColorRange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       ColorRange
		wantErr bool
	}{
		{"valid", ColorRange{Sample{30, 140, 140}, Sample{43, 247, 255}}, false},
		{"valid wrap", ColorRange{Sample{172, 130, 50}, Sample{3, 247, 255}}, false},
		{"hue too large", ColorRange{Sample{180, 0, 0}, Sample{10, 255, 255}}, true},
		{"negative value", ColorRange{Sample{0, 0, -1}, Sample{10, 255, 255}}, true},
		{"saturation inverted", ColorRange{Sample{0, 200, 0}, Sample{10, 100, 255}}, true},
		{"value inverted", ColorRange{Sample{0, 0, 200}, Sample{10, 255, 100}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
