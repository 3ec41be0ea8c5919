package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ajcalinisan/roboticscamp2025/pkg/config"
	"github.com/ajcalinisan/roboticscamp2025/pkg/daemon"
	daemonutils "github.com/ajcalinisan/roboticscamp2025/pkg/utils/daemon"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install soccerbot as a systemd service",
		GroupID: gInstallation,
		Long: `Install soccerbot daemon as a systemd service.

This makes soccerbot run in the background and start on boot. You must run this command as root.

By default, only root user is allowed to access the daemon. If you want to allow non-root users to calibrate and watch the robot, use the --allow-non-root-access flag, so you don't have to use sudo every time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			conf.SetAllowNonRootAccess(allowNonRootAccess)
			if allowNonRootAccess {
				logrus.Info("non-root users are allowed to access the soccerbot daemon.")
			} else {
				logrus.Info("only root user is allowed to access the soccerbot daemon.")
			}

			err = daemonutils.Install(configPath)
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v. Are you root?", err)
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("systemd will use the current binary (%s) at startup so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run `soccerbot install' again.\n", exePath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to access soccerbot daemon.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	noStopMotors := false

	cmd := &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall the soccerbot systemd service",
		GroupID: gInstallation,
		Long: `Uninstall soccerbot daemon from systemd.

This stops soccerbot and removes its unit file. You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			if !noStopMotors {
				// The daemon stops the motors on exit; make sure nothing was
				// left driving if it was killed.
				conf, err := config.NewFile(configPath)
				if err != nil {
					return err
				}
				d, err := daemon.OpenDriver(conf)
				if err != nil {
					return fmt.Errorf("failed to open motors: %v", err)
				}
				if err := d.Close(); err != nil {
					return fmt.Errorf("failed to stop motors: %v", err)
				}
				logrus.Infof("motors stopped")
			}

			fmt.Println("successfully uninstalled")

			cmd.Printf("Your config is kept in %s, in case you want to use `soccerbot' again. If you want a complete uninstall, you can remove both config file and soccerbot itself manually.\n", configPath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&noStopMotors, "no-stop-motors", false, "Do not touch the motor pins after uninstalling.")

	return cmd
}
