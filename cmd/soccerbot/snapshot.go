package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewSnapshotCommand() *cobra.Command {
	mask := false

	cmd := &cobra.Command{
		Use:     "snapshot [file]",
		Short:   "Save the last camera frame as JPEG",
		GroupID: gCalibration,
		Long: `Save the last camera frame as JPEG.

The frame is oriented the same way the detector sees it, so pixel coordinates
read from it can be passed to "soccerbot calibrate sample". With --mask the
binary mask of the active color range is saved instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			out := "frame.jpg"
			if mask {
				out = "mask.jpg"
			}
			if len(args) == 1 {
				out = args[0]
			}

			b, err := apiClient.GetFrame(mask)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			logrus.Infof("saved %d bytes to %s", len(b), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&mask, "mask", false, "Save the color mask instead of the frame")

	return cmd
}
