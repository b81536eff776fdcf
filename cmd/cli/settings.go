package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/axellelanca/trackit/cmd"
	"github.com/axellelanca/trackit/internal/tracking"
)

var (
	settingsRoles string
	settingsErase bool
)

// SettingsCmd groups the settings subcommands.
var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the tracking settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the tracked roles and the uninstall behaviour",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		app, err := cmd.Bootstrap(c.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		cur := app.Settings.Current()
		out := c.OutOrStdout()
		fmt.Fprintf(out, "Tracked roles:           %s\n", formatRoles(cur.TrackedRoles.Sorted()))
		fmt.Fprintf(out, "Delete data on uninstall: %t\n", cur.EraseOnUninstall)
		if available := app.Settings.AvailableRoles(); len(available) > 0 {
			fmt.Fprintf(out, "Available roles:         %s\n", strings.Join(available, ", "))
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the tracked roles and the uninstall behaviour",
	Long: `Flags that are not given keep their stored value.

Example:
  trackit settings set --roles=guest,editor --erase-on-uninstall=true`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		app, err := cmd.Bootstrap(c.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		cfg := app.Settings.Current()
		if c.Flags().Changed("roles") {
			cfg.TrackedRoles = tracking.ParseRoles(settingsRoles)
		}
		if c.Flags().Changed("erase-on-uninstall") {
			cfg.EraseOnUninstall = settingsErase
		}

		if err := app.Settings.Save(c.Context(), cfg); err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "Settings saved. Tracked roles: %s\n", formatRoles(cfg.TrackedRoles.Sorted()))
		return nil
	},
}

func formatRoles(roles []string) string {
	if len(roles) == 0 {
		return "(none)"
	}
	return strings.Join(roles, ", ")
}

func init() {
	settingsSetCmd.Flags().StringVar(&settingsRoles, "roles", "", "comma-separated roles to track (guest for logged-out visitors)")
	settingsSetCmd.Flags().BoolVar(&settingsErase, "erase-on-uninstall", false, "drop all data on uninstall")
	SettingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	cmd.RootCmd.AddCommand(SettingsCmd)
}
