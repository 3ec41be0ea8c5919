package camera

import (
	"bytes"
	"testing"

	"gocv.io/x/gocv"
)

func TestPreprocess(t *testing.T) {
	// 1x2 BGR frame: pure blue on the left, pure red on the right.
	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 1, 2, gocv.MatTypeCV8UC3)
	defer src.Close()
	src.SetUCharAt(0, 0, 255)
	src.SetUCharAt(0, 5, 255)

	tests := []struct {
		name      string
		flip      bool
		wantHueAt [2]uint8
	}{
		// OpenCV hue: blue = 120, red = 0.
		{"no flip", false, [2]uint8{120, 0}},
		{"flip", true, [2]uint8{0, 120}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oriented := gocv.NewMat()
			defer oriented.Close()
			hsvFrame := gocv.NewMat()
			defer hsvFrame.Close()

			Preprocess(src, tt.flip, &oriented, &hsvFrame)

			if hsvFrame.Rows() != 1 || hsvFrame.Cols() != 2 {
				t.Fatalf("hsv frame size %dx%d, want 1x2", hsvFrame.Rows(), hsvFrame.Cols())
			}
			for i, want := range tt.wantHueAt {
				if got := hsvFrame.GetUCharAt(0, i*3); got != want {
					t.Errorf("pixel %d hue = %d, want %d", i, got, want)
				}
				if got := hsvFrame.GetUCharAt(0, i*3+1); got != 255 {
					t.Errorf("pixel %d saturation = %d, want 255", i, got)
				}
			}
		})
	}
}

func TestEncodeJPEG(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := EncodeJPEG(empty); err == nil {
		t.Fatalf("expected an error for an empty frame")
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()
	b, err := EncodeJPEG(frame)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	if !bytes.HasPrefix(b, []byte{0xFF, 0xD8}) {
		t.Fatalf("output is not a JPEG stream")
	}
}
