package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ajcalinisan/roboticscamp2025/pkg/config"
	"github.com/ajcalinisan/roboticscamp2025/pkg/daemon"
	"github.com/ajcalinisan/roboticscamp2025/pkg/motor"
)

type motorStep struct {
	name string
	cmd  motor.Command
}

// motorTestSequence drives forward and backward at the compensated speeds,
// then turns in place at full speed each way.
func motorTestSequence(left, right float64, hold time.Duration) []motorStep {
	return []motorStep{
		{"forward", motor.Command{Left: left, Right: right, Hold: hold}},
		{"backward", motor.Command{Left: -left, Right: -right, Hold: hold}},
		{"turn left", motor.Command{Left: -1, Right: 1, Hold: hold}},
		{"turn right", motor.Command{Left: 1, Right: -1, Hold: hold}},
		{"stop", motor.Halt},
	}
}

func NewMotorTestCommand() *cobra.Command {
	hold := 4 * time.Second

	cmd := &cobra.Command{
		Use:     "motor-test",
		Short:   "Run the wheels through a fixed test sequence",
		GroupID: gAdvanced,
		Long: `Run the wheels through forward, backward, turn left, turn right and stop.

This opens the motor driver directly, so the daemon must not be running.
Speeds and pins are read from the config file. Press Ctrl-C to stop early.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}
			if err := conf.Validate(); err != nil {
				return err
			}

			d, err := daemon.OpenDriver(conf)
			if err != nil {
				return fmt.Errorf("failed to open motors: %v", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					logrus.Errorf("failed to close motors: %v", err)
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p := conf.Policy()
			for _, step := range motorTestSequence(p.LeftSpeed, p.RightSpeed, hold) {
				logrus.WithField("command", step.cmd.String()).Infof("%s...", step.name)
				err := motor.Execute(ctx, d, step.cmd)
				if errors.Is(err, context.Canceled) {
					logrus.Info("interrupted, motors stopped")
					return nil
				}
				if err != nil {
					return fmt.Errorf("%s: %w", step.name, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&hold, "hold", hold, "how long each step runs")

	return cmd
}
