package main

import (
	"github.com/spf13/cobra"

	"github.com/ajcalinisan/roboticscamp2025/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewDriveCommand() *cobra.Command {
	cmd := newEnableDisableCommand(
		"drive",
		"motor output",
		`Enable or disable motor output.

With drive disabled the daemon keeps detecting the ball and accepting
calibration samples, but the wheels stay stopped. Disabling stops the
motors immediately, even in the middle of a push.`,
		func() (string, error) { return apiClient.SetDrive(true) },
		func() (string, error) { return apiClient.SetDrive(false) },
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Get whether motor output is enabled",
		RunE: func(cmd *cobra.Command, _ []string) error {
			on, err := apiClient.GetDrive()
			if err != nil {
				return err
			}
			cmd.Printf("Drive enabled: %s\n", bool2Text(on))
			return nil
		},
	})

	return cmd
}
