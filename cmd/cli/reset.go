package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/trackit/cmd"
)

var resetConfirm bool

// ResetCmd deletes every recorded visit and restarts ids at 1.
var ResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all tracking data",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		if !resetConfirm {
			return errors.New("refusing to delete tracking data without --yes")
		}

		app, err := cmd.Bootstrap(c.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Retention.ResetData(c.Context()); err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), "Tracking data reset.")
		return nil
	},
}

func init() {
	ResetCmd.Flags().BoolVarP(&resetConfirm, "yes", "y", false, "confirm deletion")
	cmd.RootCmd.AddCommand(ResetCmd)
}
