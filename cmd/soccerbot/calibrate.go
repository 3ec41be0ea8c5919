package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ajcalinisan/roboticscamp2025/pkg/calibration"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
)

func NewCalibrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calibrate",
		Aliases: []string{"calibration", "cali"},
		Short:   "Calibrate the ball color from samples",
		Long: `Calibrate the ball color from samples.

Each sample is one HSV reading of the ball. Once enough samples are collected
their average becomes the new range center, the range is widened by the
configured tolerances, saved under the active profile and used from the next
frame on. Use "soccerbot snapshot" to find pixel coordinates on the ball.`,
		GroupID: gCalibration,
	}

	sampleCmd := &cobra.Command{
		Use:   "sample [x] [y]",
		Short: "Sample the last camera frame at pixel (x, y)",
		RunE: func(cmd *cobra.Command, args []string) error {
			xy, err := parseIntArgs(args, "x", "y")
			if err != nil {
				return err
			}
			resp, err := apiClient.SamplePixel(xy[0], xy[1])
			if err != nil {
				return fmt.Errorf("failed to sample pixel: %w", err)
			}
			printSampleResponse(cmd, resp)
			return nil
		},
	}

	sampleHSVCmd := &cobra.Command{
		Use:   "sample-hsv [h] [s] [v]",
		Short: "Submit an HSV sample directly",
		Long:  "Submit an HSV sample directly. Hue is 0-179, saturation and value are 0-255.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseSampleArgs(args)
			if err != nil {
				return err
			}
			resp, err := apiClient.SampleHSV(s)
			if err != nil {
				return fmt.Errorf("failed to submit sample: %w", err)
			}
			printSampleResponse(cmd, resp)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show calibration progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := apiClient.GetCalibration()
			if err != nil {
				return fmt.Errorf("failed to get calibration status: %w", err)
			}
			printCalibrationStatus(cmd, st)
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop the samples collected so far",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := apiClient.ResetCalibration()
			if err != nil {
				return fmt.Errorf("failed to reset calibration: %w", err)
			}
			cmd.Println("Calibration samples dropped.")
			printCalibrationStatus(cmd, st)
			return nil
		},
	}

	cmd.AddCommand(sampleCmd, sampleHSVCmd, statusCmd, resetCmd)

	return cmd
}

func printSampleResponse(cmd *cobra.Command, resp *types.SampleResponse) {
	cmd.Printf("Sample: %s\n", bold("%s", resp.Sample))
	if resp.Result == nil {
		cmd.Printf("Collected %s samples.\n", bold("%d/%d", resp.Status.Collected, resp.Status.Required))
		return
	}

	cmd.Println(color.GreenString("Calibration complete."))
	cmd.Printf("  Center: %s\n", bold("%s", resp.Result.Center))
	cmd.Printf("  Range: %s\n", bold("%s", resp.Result.Range))
	if resp.SaveError != "" {
		cmd.Printf("  %s the range is active but was not saved: %s\n", color.RedString("Warning:"), resp.SaveError)
	}
}

func printCalibrationStatus(cmd *cobra.Command, st *calibration.Status) {
	cmd.Printf("Samples: %s\n", bold("%d/%d", st.Collected, st.Required))
	for i, s := range st.Pending {
		cmd.Printf("  #%d %s\n", i+1, s)
	}
	cmd.Printf("Tolerances: %s\n", bold("±%d hue, ±%d saturation, ±%d value", st.Tolerances.Hue, st.Tolerances.Saturation, st.Tolerances.Value))
	if st.LastCenter != nil {
		cmd.Printf("Last center: %s\n", bold("%s", *st.LastCenter))
	}
	if !st.CalibratedAt.IsZero() {
		cmd.Printf("Calibrated at: %s\n", bold("%s", st.CalibratedAt.Local().Format(time.DateTime)))
	}
}
