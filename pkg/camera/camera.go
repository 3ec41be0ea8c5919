// Package camera acquires frames and prepares them for detection.
package camera

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// ErrAcquisition is returned when the frame source cannot deliver a frame.
// It is fatal to the control loop.
var ErrAcquisition = errors.New("frame acquisition failed")

// Source delivers BGR frames. Read blocks until the next frame is
// available and writes it into dst.
type Source interface {
	Read(dst *gocv.Mat) error
	Close() error
}

// Config describes the capture device.
type Config struct {
	// Device is a numeric device ID ("0") or a file/stream path.
	Device    string  `json:"device"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"frameRate"`
	// Flip rotates frames by 180 degrees for an upside-down mount.
	Flip bool `json:"flip"`
}

// DefaultConfig is a 640x480 capture at 30 fps on device 0, flipped.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		FrameRate: 30,
		Flip:      true,
	}
}

// Capture is a Source backed by an OpenCV VideoCapture.
type Capture struct {
	mu  sync.Mutex
	vc  *gocv.VideoCapture
	cfg Config
}

var _ Source = &Capture{}

// Open opens the device described by cfg.
func Open(cfg Config) (*Capture, error) {
	var device interface{} = cfg.Device
	if id, err := strconv.Atoi(cfg.Device); err == nil {
		device = id
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrAcquisition, cfg.Device, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("%w: device %q is not opened", ErrAcquisition, cfg.Device)
	}

	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FrameRate > 0 {
		vc.Set(gocv.VideoCaptureFPS, cfg.FrameRate)
	}

	logrus.WithFields(logrus.Fields{
		"device":    cfg.Device,
		"width":     vc.Get(gocv.VideoCaptureFrameWidth),
		"height":    vc.Get(gocv.VideoCaptureFrameHeight),
		"frameRate": vc.Get(gocv.VideoCaptureFPS),
	}).Info("camera opened")

	return &Capture{vc: vc, cfg: cfg}, nil
}

// Read blocks until a frame is available. There is no timeout; a stalled
// device stalls the caller.
func (c *Capture) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return fmt.Errorf("%w: capture closed", ErrAcquisition)
	}
	if ok := c.vc.Read(dst); !ok || dst.Empty() {
		return fmt.Errorf("%w: no frame from device %q", ErrAcquisition, c.cfg.Device)
	}
	return nil
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	return err
}

// Preprocess orients a BGR frame and converts it to HSV. oriented receives
// the (possibly flipped) BGR frame, hsvFrame the converted one.
func Preprocess(src gocv.Mat, flip bool, oriented, hsvFrame *gocv.Mat) {
	if flip {
		gocv.Flip(src, oriented, -1)
	} else {
		src.CopyTo(oriented)
	}
	gocv.CvtColor(*oriented, hsvFrame, gocv.ColorBGRToHSV)
}

// EncodeJPEG returns the JPEG encoding of a BGR frame.
func EncodeJPEG(frame gocv.Mat) ([]byte, error) {
	if frame.Empty() {
		return nil, errors.New("no frame captured yet")
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
