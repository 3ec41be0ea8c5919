package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ajcalinisan/roboticscamp2025/pkg/camera"
	"github.com/ajcalinisan/roboticscamp2025/pkg/config"
	"github.com/ajcalinisan/roboticscamp2025/pkg/events"
	"github.com/ajcalinisan/roboticscamp2025/pkg/motor"
	"github.com/ajcalinisan/roboticscamp2025/pkg/profile"
)

var (
	conf   config.Config
	ctrl   *Controller
	store  *profile.File
	sseHub *events.EventHub
)

// loopExitTimeout bounds the wait for the control loop after a signal.
const loopExitTimeout = 5 * time.Second

// Hardware constructors. Replaced in tests.
var (
	openCamera = func(cfg camera.Config) (camera.Source, error) { return camera.Open(cfg) }
	openGPIO   = func(cfg motor.GPIOConfig) (motor.Driver, error) { return motor.OpenGPIO(cfg) }
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/status", getStatus)
	router.GET("/config", getConfig)
	router.GET("/version", getVersion)
	router.GET("/drive", getDrive)
	router.PUT("/drive", setDrive)
	router.GET("/range", getRange)
	router.PUT("/range", setRange)
	router.GET("/profiles", getProfiles)
	router.GET("/calibration", getCalibration)
	router.DELETE("/calibration", resetCalibration)
	router.POST("/calibration/sample", postCalibrationSample)
	router.POST("/calibration/sample-hsv", postCalibrationSampleHSV)
	router.GET("/frame", getFrame)
	router.GET("/events", streamEvents)

	return router
}

// OpenDriver returns the motor driver selected in c.
func OpenDriver(c config.Config) (motor.Driver, error) {
	switch c.MotorDriver() {
	case config.MotorDriverMock:
		logrus.Warn("using mock motor driver, the robot will not move")
		return motor.NewMock(), nil
	case config.MotorDriverGPIO:
		return openGPIO(c.GPIO())
	default:
		return nil, pkgerrors.Errorf("unknown motor driver %q", c.MotorDriver())
	}
}

func settingsFromConfig(c config.Config) Settings {
	return Settings{
		Params:     c.Policy(),
		MinRadius:  c.MinRadius(),
		Flip:       c.Camera().Flip,
		Samples:    c.CalibrationSamples(),
		Tolerances: c.Tolerances(),
	}
}

func newController(c config.Config, st *profile.File, hub *events.EventHub) (*Controller, error) {
	r, center, _ := profile.Resolve(st, c.Profile(), c.DefaultRange())

	driver, err := OpenDriver(c)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to open motor driver")
	}

	source, err := openCamera(c.Camera())
	if err != nil {
		if cerr := driver.Close(); cerr != nil {
			logrus.WithError(cerr).Error("failed to close motor driver")
		}
		return nil, pkgerrors.Wrap(err, "failed to open camera")
	}

	s := settingsFromConfig(c)
	return NewController(Options{
		Source:       source,
		Driver:       driver,
		Store:        st,
		Hub:          hub,
		Profile:      c.Profile(),
		Range:        r,
		LastCenter:   center,
		Params:       s.Params,
		MinRadius:    s.MinRadius,
		Flip:         s.Flip,
		Samples:      s.Samples,
		Tolerances:   s.Tolerances,
		DriveEnabled: c.DriveEnabled(),
	}), nil
}

// reload re-reads the config file and pushes the result to the controller.
func reload() {
	oldProfile := conf.Profile()
	if err := conf.Load(); err != nil {
		logrus.Errorf("failed to reload config, keeping the current settings: %v", err)
		return
	}

	ctrl.Reconfigure(settingsFromConfig(conf))
	if err := ctrl.SetDriveEnabled(conf.DriveEnabled()); err != nil {
		logrus.Errorf("failed to apply driveEnabled: %v", err)
	}
	if conf.Profile() != oldProfile {
		r, center, _ := profile.Resolve(store, conf.Profile(), conf.DefaultRange())
		ctrl.SwitchProfile(conf.Profile(), r, center)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
}

// loadStartupConfig reads the config file. noDrive forces drive off for
// this process only; the file keeps its value.
func loadStartupConfig(configPath string, noDrive bool) (*config.File, error) {
	f, err := config.NewFile(configPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to parse config during startup")
	}
	if err := f.Validate(); err != nil {
		return nil, pkgerrors.Wrapf(err, "invalid config")
	}
	if noDrive {
		logrus.Warn("starting with drive disabled, motors stay stopped until drive is enabled")
		f.SetDriveEnabled(false)
	}
	return f, nil
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool, noDrive bool) error {
	router := setupRoutes()

	var err error
	conf, err = loadStartupConfig(configPath, noDrive)
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	store = profile.NewFile(conf.ProfileStorePath())
	sseHub = events.NewEventHub()

	ctrl, err = newController(conf, store, sseHub)
	if err != nil {
		logrus.Fatal(err)
	}

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			reload()
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	if _, err := os.Stat(unixSocketPath); err == nil {
		logrus.Warnf("removing stale socket %s", unixSocketPath)
		_ = os.Remove(unixSocketPath)
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		_ = ctrl.Close()
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			_ = ctrl.Close()
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- ctrl.Run(ctx)
	}()

	var runErr error
	loopExited := true
	select {
	case <-ctx.Done():
		logrus.Info("caught signal: shutting down.")
		// The loop may be blocked on a stalled camera; stop the motors now.
		ctrl.stopMotors("signal")
		select {
		case runErr = <-loopErr:
		case <-time.After(loopExitTimeout):
			logrus.Warnf("control loop did not exit within %s, frame source may be stalled", loopExitTimeout)
			loopExited = false
		}
	case runErr = <-loopErr:
		logrus.Errorf("control loop exited: %v", runErr)
	}

	logrus.Info("shutting down http server")
	sseHub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	if loopExited {
		logrus.Info("releasing camera and motors")
		if err := ctrl.Close(); err != nil {
			logrus.Errorf("failed to release hardware: %v", err)
		}
	}

	logrus.Info("exiting")
	return runErr
}
