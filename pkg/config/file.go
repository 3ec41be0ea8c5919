package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"

	"github.com/ajcalinisan/roboticscamp2025/pkg/calibration"
	"github.com/ajcalinisan/roboticscamp2025/pkg/camera"
	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/motor"
	"github.com/ajcalinisan/roboticscamp2025/pkg/policy"
	"github.com/ajcalinisan/roboticscamp2025/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		Profile:          ptr.To("red"),
		ProfileStorePath: ptr.To("/var/lib/soccerbot/profiles.json"),
		DefaultLower:     ptr.To([3]int{172, 130, 50}),
		DefaultUpper:     ptr.To([3]int{178, 247, 255}),

		CameraDevice: ptr.To("0"),
		FrameWidth:   ptr.To(640),
		FrameHeight:  ptr.To(480),
		FrameRate:    ptr.To(30.0),
		FlipFrame:    ptr.To(true),

		HueTolerance:        ptr.To(10),
		SaturationTolerance: ptr.To(60),
		ValueTolerance:      ptr.To(60),
		CalibrationSamples:  ptr.To(calibration.DefaultSampleCount),

		MinRadius: ptr.To(10.0),

		FarRadius:     ptr.To(10.0),
		NearRadius:    ptr.To(40.0),
		CenterMin:     ptr.To(240.0),
		CenterMax:     ptr.To(400.0),
		LeftSpeed:     ptr.To(0.7),
		RightSpeed:    ptr.To(1.0),
		TurnSpeed:     ptr.To(0.4),
		ApproachScale: ptr.To(0.8),
		SpinTimeMs:    ptr.To(90),
		SpinPauseMs:   ptr.To(300),
		TurnTimeMs:    ptr.To(100),
		TurnPauseMs:   ptr.To(50),
		PushHoldMs:    ptr.To(2000),

		MotorDriver:      ptr.To(MotorDriverGPIO),
		LeftForwardPin:   ptr.To(22),
		LeftBackwardPin:  ptr.To(23),
		RightForwardPin:  ptr.To(17),
		RightBackwardPin: ptr.To(18),
		PWMFrequencyHz:   ptr.To(100),

		DriveEnabled:       ptr.To(true),
		AllowNonRootAccess: ptr.To(false),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

// RawFileConfig is the on-disk shape. Unset fields take their defaults.
type RawFileConfig struct {
	Profile          *string `json:"profile,omitempty"`
	ProfileStorePath *string `json:"profileStorePath,omitempty"`
	DefaultLower     *[3]int `json:"defaultLower,omitempty"`
	DefaultUpper     *[3]int `json:"defaultUpper,omitempty"`

	CameraDevice *string  `json:"cameraDevice,omitempty"`
	FrameWidth   *int     `json:"frameWidth,omitempty"`
	FrameHeight  *int     `json:"frameHeight,omitempty"`
	FrameRate    *float64 `json:"frameRate,omitempty"`
	FlipFrame    *bool    `json:"flipFrame,omitempty"`

	HueTolerance        *int `json:"hueTolerance,omitempty"`
	SaturationTolerance *int `json:"saturationTolerance,omitempty"`
	ValueTolerance      *int `json:"valueTolerance,omitempty"`
	CalibrationSamples  *int `json:"calibrationSamples,omitempty"`

	MinRadius *float64 `json:"minRadius,omitempty"`

	FarRadius     *float64 `json:"farRadius,omitempty"`
	NearRadius    *float64 `json:"nearRadius,omitempty"`
	CenterMin     *float64 `json:"centerMin,omitempty"`
	CenterMax     *float64 `json:"centerMax,omitempty"`
	LeftSpeed     *float64 `json:"leftSpeed,omitempty"`
	RightSpeed    *float64 `json:"rightSpeed,omitempty"`
	TurnSpeed     *float64 `json:"turnSpeed,omitempty"`
	ApproachScale *float64 `json:"approachScale,omitempty"`
	SpinTimeMs    *int     `json:"spinTimeMs,omitempty"`
	SpinPauseMs   *int     `json:"spinPauseMs,omitempty"`
	TurnTimeMs    *int     `json:"turnTimeMs,omitempty"`
	TurnPauseMs   *int     `json:"turnPauseMs,omitempty"`
	PushHoldMs    *int     `json:"pushHoldMs,omitempty"`

	MotorDriver      *string `json:"motorDriver,omitempty"`
	LeftForwardPin   *int    `json:"leftForwardPin,omitempty"`
	LeftBackwardPin  *int    `json:"leftBackwardPin,omitempty"`
	RightForwardPin  *int    `json:"rightForwardPin,omitempty"`
	RightBackwardPin *int    `json:"rightBackwardPin,omitempty"`
	PWMFrequencyHz   *int    `json:"pwmFrequencyHz,omitempty"`

	DriveEnabled       *bool `json:"driveEnabled,omitempty"`
	AllowNonRootAccess *bool `json:"allowNonRootAccess,omitempty"`
}

// value returns the configured field or its default. pick selects the
// same field from either struct.
func value[T any](f *File, pick func(*RawFileConfig) *T) T {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(pick(f.c), *pick(defaultFileConfig))
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (f *File) Profile() string {
	return value(f, func(c *RawFileConfig) *string { return c.Profile })
}

func (f *File) ProfileStorePath() string {
	return value(f, func(c *RawFileConfig) *string { return c.ProfileStorePath })
}

func (f *File) DefaultRange() hsv.ColorRange {
	return hsv.ColorRange{
		Lower: hsv.SampleFromTriplet(value(f, func(c *RawFileConfig) *[3]int { return c.DefaultLower })),
		Upper: hsv.SampleFromTriplet(value(f, func(c *RawFileConfig) *[3]int { return c.DefaultUpper })),
	}
}

func (f *File) Camera() camera.Config {
	return camera.Config{
		Device:    value(f, func(c *RawFileConfig) *string { return c.CameraDevice }),
		Width:     value(f, func(c *RawFileConfig) *int { return c.FrameWidth }),
		Height:    value(f, func(c *RawFileConfig) *int { return c.FrameHeight }),
		FrameRate: value(f, func(c *RawFileConfig) *float64 { return c.FrameRate }),
		Flip:      value(f, func(c *RawFileConfig) *bool { return c.FlipFrame }),
	}
}

func (f *File) Tolerances() calibration.Tolerances {
	return calibration.Tolerances{
		Hue:        value(f, func(c *RawFileConfig) *int { return c.HueTolerance }),
		Saturation: value(f, func(c *RawFileConfig) *int { return c.SaturationTolerance }),
		Value:      value(f, func(c *RawFileConfig) *int { return c.ValueTolerance }),
	}
}

func (f *File) CalibrationSamples() int {
	return value(f, func(c *RawFileConfig) *int { return c.CalibrationSamples })
}

func (f *File) MinRadius() float64 {
	return value(f, func(c *RawFileConfig) *float64 { return c.MinRadius })
}

func (f *File) Policy() policy.Params {
	return policy.Params{
		FarRadius:     value(f, func(c *RawFileConfig) *float64 { return c.FarRadius }),
		NearRadius:    value(f, func(c *RawFileConfig) *float64 { return c.NearRadius }),
		CenterMin:     value(f, func(c *RawFileConfig) *float64 { return c.CenterMin }),
		CenterMax:     value(f, func(c *RawFileConfig) *float64 { return c.CenterMax }),
		LeftSpeed:     value(f, func(c *RawFileConfig) *float64 { return c.LeftSpeed }),
		RightSpeed:    value(f, func(c *RawFileConfig) *float64 { return c.RightSpeed }),
		TurnSpeed:     value(f, func(c *RawFileConfig) *float64 { return c.TurnSpeed }),
		ApproachScale: value(f, func(c *RawFileConfig) *float64 { return c.ApproachScale }),
		SpinTime:      ms(value(f, func(c *RawFileConfig) *int { return c.SpinTimeMs })),
		SpinCooldown:  ms(value(f, func(c *RawFileConfig) *int { return c.SpinPauseMs })),
		TurnTime:      ms(value(f, func(c *RawFileConfig) *int { return c.TurnTimeMs })),
		TurnCooldown:  ms(value(f, func(c *RawFileConfig) *int { return c.TurnPauseMs })),
		PushHold:      ms(value(f, func(c *RawFileConfig) *int { return c.PushHoldMs })),
	}
}

func (f *File) MotorDriver() string {
	return value(f, func(c *RawFileConfig) *string { return c.MotorDriver })
}

func (f *File) GPIO() motor.GPIOConfig {
	return motor.GPIOConfig{
		LeftForward:   value(f, func(c *RawFileConfig) *int { return c.LeftForwardPin }),
		LeftBackward:  value(f, func(c *RawFileConfig) *int { return c.LeftBackwardPin }),
		RightForward:  value(f, func(c *RawFileConfig) *int { return c.RightForwardPin }),
		RightBackward: value(f, func(c *RawFileConfig) *int { return c.RightBackwardPin }),
		PWMFrequency:  physic.Frequency(value(f, func(c *RawFileConfig) *int { return c.PWMFrequencyHz })) * physic.Hertz,
	}
}

func (f *File) DriveEnabled() bool {
	return value(f, func(c *RawFileConfig) *bool { return c.DriveEnabled })
}

func (f *File) AllowNonRootAccess() bool {
	return value(f, func(c *RawFileConfig) *bool { return c.AllowNonRootAccess })
}

func (f *File) SetProfile(name string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Profile = &name
}

func (f *File) SetDriveEnabled(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.DriveEnabled = &b
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.AllowNonRootAccess = &b
}

func (f *File) Validate() error {
	if strings.TrimSpace(f.Profile()) == "" {
		return pkgerrors.New("profile name must not be empty")
	}
	if err := f.DefaultRange().Validate(); err != nil {
		return pkgerrors.Wrap(err, "invalid default range")
	}
	if err := f.Policy().Validate(); err != nil {
		return pkgerrors.Wrap(err, "invalid policy parameters")
	}
	tol := f.Tolerances()
	if tol.Hue < 0 || tol.Hue >= hsv.HueRing/2 || tol.Saturation < 0 || tol.Value < 0 {
		return pkgerrors.Errorf("invalid tolerances %+v", tol)
	}
	if f.CalibrationSamples() < 1 {
		return pkgerrors.New("calibrationSamples must be at least 1")
	}
	if f.MinRadius() < 0 {
		return pkgerrors.New("minRadius must not be negative")
	}
	switch d := f.MotorDriver(); d {
	case MotorDriverGPIO, MotorDriverMock:
	default:
		return pkgerrors.Errorf("unknown motorDriver %q, want %q or %q", d, MotorDriverGPIO, MotorDriverMock)
	}
	return nil
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file: all defaults. Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	// A rejected file leaves the current values in place.
	if err := NewFileFromConfig(&conf, f.filepath).Validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	cam := f.Camera()
	return logrus.Fields{
		"profile":            f.Profile(),
		"profileStorePath":   f.ProfileStorePath(),
		"defaultRange":       f.DefaultRange().String(),
		"cameraDevice":       cam.Device,
		"frameSize":          []int{cam.Width, cam.Height},
		"flipFrame":          cam.Flip,
		"tolerances":         f.Tolerances(),
		"calibrationSamples": f.CalibrationSamples(),
		"minRadius":          f.MinRadius(),
		"policy":             f.Policy(),
		"motorDriver":        f.MotorDriver(),
		"driveEnabled":       f.DriveEnabled(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
	}
}
