package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/trackit/cmd"
)

// MigrateCmd creates the tables and writes the default settings. Running it
// again keeps existing visits and settings.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the visit and option tables and activate default settings",
	Long: `Connects to the configured database (sqlite or postgres), runs the gorm
migrations for the visit and option tables, and stores the default tracking
settings for any option that does not exist yet.`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		app, err := cmd.Bootstrap(c.Context(), true)
		if err != nil {
			return err
		}
		defer app.Close()

		cur := app.Settings.Current()
		fmt.Fprintln(c.OutOrStdout(), "Database migrations executed successfully.")
		fmt.Fprintf(c.OutOrStdout(), "Tracked roles: %s\n", formatRoles(cur.TrackedRoles.Sorted()))
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
