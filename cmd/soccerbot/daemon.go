package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ajcalinisan/roboticscamp2025/pkg/daemon"
	"github.com/ajcalinisan/roboticscamp2025/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to always allow non-root users to access the daemon.
	alwaysAllowNonRootAccess = false
	// noDrive starts the control loop with the motors disabled.
	noDrive = false
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "daemon",
		Hidden:  true,
		Short:   "Run the vision and motor control loop in the foreground",
		GroupID: gAdvanced,
		Long: `Run the vision and motor control loop in the foreground.

The daemon opens the camera and the motor driver named in the config file and
serves the API on the unix socket. SIGHUP reloads the config file; a file that
fails validation is ignored. SIGINT and SIGTERM stop the motors at once, then
wait for the loop to release the camera.

With --no-drive the loop runs in calibration-only mode: the ball is detected
and calibration samples are accepted, but the wheels stay stopped until
"soccerbot drive enable". A config reload applies driveEnabled from the file.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
				"noDrive": noDrive,
			}).Info("soccerbot daemon starting")
			return daemon.Run(configPath, unixSocketPath, alwaysAllowNonRootAccess, noDrive)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Always allow non-root users to access the daemon.")
	f.BoolVar(&noDrive, "no-drive", false,
		"Start with motor output disabled (calibration-only mode).")

	return cmd
}
