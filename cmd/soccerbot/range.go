package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
)

func NewRangeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "range",
		Short:   "Get or set the active color range",
		GroupID: gCalibration,
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the active color range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := apiClient.GetRange()
			if err != nil {
				return err
			}
			printRange(cmd, resp)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set [lower-h] [lower-s] [lower-v] [upper-h] [upper-s] [upper-v]",
		Short: "Set and save the color range",
		Long: `Set and save the color range of the active profile.

A lower hue greater than the upper hue selects a range that wraps around hue 0,
e.g. "range set 172 130 50 3 247 255" for red.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 6 {
				return fmt.Errorf("invalid number of arguments, want 6")
			}
			lower, err := parseSampleArgs(args[:3])
			if err != nil {
				return fmt.Errorf("invalid lower bound: %w", err)
			}
			upper, err := parseSampleArgs(args[3:])
			if err != nil {
				return fmt.Errorf("invalid upper bound: %w", err)
			}
			r, err := hsv.NewColorRange(lower, upper)
			if err != nil {
				return err
			}

			resp, err := apiClient.SetRange(r)
			if err != nil {
				return err
			}
			printRange(cmd, resp)
			return nil
		},
	}

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "List saved profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := apiClient.GetProfiles()
			if err != nil {
				return err
			}
			active := ""
			if resp, err := apiClient.GetRange(); err == nil {
				active = resp.Profile
			}
			if len(names) == 0 {
				cmd.Println("No saved profiles.")
			}
			for _, n := range names {
				if n == active {
					cmd.Printf("* %s\n", bold("%s", n))
				} else {
					cmd.Printf("  %s\n", n)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(getCmd, setCmd, profilesCmd)

	return cmd
}

func printRange(cmd *cobra.Command, resp *types.RangeResponse) {
	cmd.Printf("Profile: %s\n", bold("%s", resp.Profile))
	cmd.Printf("Lower: %s\n", bold("%s", resp.Range.Lower))
	cmd.Printf("Upper: %s\n", bold("%s", resp.Range.Upper))
	cmd.Printf("Wraps hue 0: %s\n", bool2Text(resp.Wraps))
	if resp.SaveError != "" {
		cmd.Printf("%s the range is active but was not saved: %s\n", color.RedString("Warning:"), resp.SaveError)
	}
}
