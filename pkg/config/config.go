package config

import (
	"github.com/sirupsen/logrus"

	"github.com/ajcalinisan/roboticscamp2025/pkg/calibration"
	"github.com/ajcalinisan/roboticscamp2025/pkg/camera"
	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/motor"
	"github.com/ajcalinisan/roboticscamp2025/pkg/policy"
)

const (
	MotorDriverGPIO = "gpio"
	MotorDriverMock = "mock"
)

type Config interface {
	// Profile is the name of the calibration profile in use.
	Profile() string
	ProfileStorePath() string
	// DefaultRange is used when the profile is missing or invalid.
	DefaultRange() hsv.ColorRange

	Camera() camera.Config
	Tolerances() calibration.Tolerances
	CalibrationSamples() int
	MinRadius() float64
	Policy() policy.Params

	MotorDriver() string
	GPIO() motor.GPIOConfig

	DriveEnabled() bool
	AllowNonRootAccess() bool

	SetProfile(string)
	SetDriveEnabled(bool)
	SetAllowNonRootAccess(bool)

	// Validate checks cross-field constraints.
	Validate() error
	LogrusFields() logrus.Fields

	// Load reads the configuration from the source. An invalid source is
	// rejected and the previous values are kept.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
