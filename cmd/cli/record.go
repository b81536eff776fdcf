package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/trackit/cmd"
	"github.com/axellelanca/trackit/internal/services"
	"github.com/axellelanca/trackit/internal/tracking"
)

var (
	recordURL     string
	recordElement string
	recordRoles   string
	recordGuest   bool
)

// RecordCmd feeds one page view through the recorder with the stored settings.
var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a page view as a guest or as a user holding roles",
	Long: `Runs one page view through the same role filter the server uses.

Example:
  trackit record --url="https://example.com/pricing" --element=hero-cta --roles=editor
  trackit record --url="https://example.com/" --guest`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		visitor, err := recordVisitor()
		if err != nil {
			return err
		}

		app, err := cmd.Bootstrap(c.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		recorded := app.Recorder.OnPageView(c.Context(), services.PageView{
			FullURL:       recordURL,
			CustomElement: recordElement,
			Visitor:       visitor,
		}, app.Settings.Current())

		if recorded {
			fmt.Fprintln(c.OutOrStdout(), "Visit recorded.")
		} else {
			fmt.Fprintln(c.OutOrStdout(), "Visit not recorded.")
		}
		return nil
	},
}

func recordVisitor() (tracking.Visitor, error) {
	switch {
	case recordGuest && recordRoles != "":
		return tracking.Visitor{}, errors.New("--guest and --roles are mutually exclusive")
	case recordGuest:
		return tracking.Guest(), nil
	case recordRoles != "":
		return tracking.Visitor{LoggedIn: true, Roles: tracking.ParseRoles(recordRoles)}, nil
	default:
		return tracking.Visitor{}, errors.New("one of --guest or --roles is required")
	}
}

func init() {
	RecordCmd.Flags().StringVar(&recordURL, "url", "", "full URL of the viewed page")
	RecordCmd.Flags().StringVar(&recordElement, "element", "", "custom element label")
	RecordCmd.Flags().StringVar(&recordRoles, "roles", "", "comma-separated roles of a logged-in visitor")
	RecordCmd.Flags().BoolVar(&recordGuest, "guest", false, "record as a logged-out visitor")
	_ = RecordCmd.MarkFlagRequired("url")
	cmd.RootCmd.AddCommand(RecordCmd)
}
