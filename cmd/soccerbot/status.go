package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ajcalinisan/roboticscamp2025/pkg/policy"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
)

type statusData struct {
	status *types.Status
	config map[string]any
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	st, err := apiClient.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		status: st,
		config: conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of soccerbot",
		Long:    `Get controller state, the last detection, the active color range and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			if asJSON {
				return printStatusJSON(cmd, data)
			}

			st := data.status

			cmd.Println(bold("Controller:"))
			cmd.Printf("  State: %s\n", stateText(st.State))
			cmd.Printf("  Last action: %s\n", bold("%s", st.Action))
			cmd.Printf("  Wheels: %s\n", bold("left %+.2f  right %+.2f", st.Left, st.Right))
			cmd.Printf("  Drive enabled: %s\n", bool2Text(st.DriveEnabled))
			if !st.DriveEnabled {
				cmd.Println("    Motors are stopped. The loop still detects and accepts calibration samples.")
			}
			cmd.Printf("  Loop rate: %s (%d ticks in the last 5s)\n", bold("%.1f ticks/s", st.TicksPerSec), st.RecentTicks)
			if !st.StartedAt.IsZero() {
				cmd.Printf("  Uptime: %s\n", bold("%s", time.Since(st.StartedAt).Truncate(time.Second)))
			}

			cmd.Println()

			cmd.Println(bold("Detection:"))
			if st.Target != nil {
				cmd.Printf("  Ball: %s\n", bold("%s", st.Target))
			} else {
				cmd.Println("  Ball: " + color.YellowString("not visible"))
			}

			cmd.Println()

			cmd.Println(bold("Color range:"))
			cmd.Printf("  Profile: %s\n", bold("%s", st.Profile))
			cmd.Printf("  Range: %s\n", bold("%s", st.Range))
			cmd.Printf("  Wraps hue 0: %s\n", bool2Text(st.Range.Wraps()))

			cmd.Println()

			cal := st.Calibration
			cmd.Println(bold("Calibration:"))
			cmd.Printf("  Samples: %s\n", bold("%d/%d", cal.Collected, cal.Required))
			if cal.LastCenter != nil {
				cmd.Printf("  Last center: %s\n", bold("%s", *cal.LastCenter))
			}
			if !cal.CalibratedAt.IsZero() {
				cmd.Printf("  Calibrated at: %s\n", bold("%s", cal.CalibratedAt.Local().Format(time.DateTime)))
			}

			cmd.Println()

			cmd.Println(bold("Configuration:"))
			keys := make([]string, 0, len(data.config))
			for k := range data.config {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				cmd.Printf("  %s: %v\n", k, data.config[k])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")

	return cmd
}

func stateText(s string) string {
	switch policy.State(s) {
	case policy.Pushing:
		return color.New(color.Bold, color.FgGreen).Sprint(s)
	case policy.Approaching, policy.Aligning:
		return color.New(color.Bold, color.FgCyan).Sprint(s)
	case policy.Searching:
		return color.New(color.Bold, color.FgYellow).Sprint(s)
	default:
		return bold("%s", s)
	}
}
