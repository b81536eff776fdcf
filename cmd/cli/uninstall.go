package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/trackit/cmd"
)

// UninstallCmd decommissions the tracker. Data and settings are dropped only
// when the erase-on-uninstall setting is enabled.
var UninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Decommission the tracker, erasing data if configured to",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		app, err := cmd.Bootstrap(c.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		erased, err := app.Retention.OnDecommission(c.Context(), app.Settings.Current())
		if err != nil {
			return err
		}
		if erased {
			fmt.Fprintln(c.OutOrStdout(), "Tracking data and settings erased.")
		} else {
			fmt.Fprintln(c.OutOrStdout(), "Tracking data kept.")
		}
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(UninstallCmd)
}
