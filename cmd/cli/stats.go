package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/axellelanca/trackit/cmd"
	"github.com/axellelanca/trackit/internal/services"
)

var statsPage int

// StatsCmd prints the dashboard: daily counters, then one page of visits.
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show daily stats and a page of recorded visits",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		app, err := cmd.Bootstrap(c.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		stats, err := app.Reports.DailyStats(c.Context())
		if err != nil {
			return err
		}
		page, err := app.Reports.ListPage(c.Context(), statsPage, 0)
		if err != nil {
			return err
		}

		printDashboard(c.OutOrStdout(), stats, page)
		return nil
	},
}

func init() {
	StatsCmd.Flags().IntVarP(&statsPage, "page", "p", 1, "page of the visit listing")
	cmd.RootCmd.AddCommand(StatsCmd)
}

func printDashboard(out io.Writer, stats services.DailyStats, page *services.VisitPage) {
	fmt.Fprintln(out, "Daily Stats")
	fmt.Fprintf(out, "  24 hours: %d\n", stats.Last24h)
	fmt.Fprintf(out, "  30 days:  %d\n", stats.Last30d)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "All Stats")
	fmt.Fprintf(out, "Showing %d of %d total results. Page %d of %d.\n",
		len(page.Rows), page.TotalCount, page.CurrentPage, page.TotalPages)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDAY\tTIME\tSOURCE URL\tSOURCE CUSTOM ELEMENT")
	for _, row := range page.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", row.ID, row.Day, row.Time, row.SourceURL, row.SourceCustomElement)
	}
	_ = tw.Flush()

	fmt.Fprintln(out, pageNavigation(page))
}

// pageNavigation renders the pager line, e.g. "« ‹ 1 [2] 3 4 5 › »", with
// unavailable links shown as "-".
func pageNavigation(page *services.VisitPage) string {
	var parts []string
	if page.HasPrevious() {
		parts = append(parts, "«", "‹")
	} else {
		parts = append(parts, "-", "-")
	}
	for _, p := range page.Window.Pages() {
		if p == page.CurrentPage {
			parts = append(parts, "["+strconv.Itoa(p)+"]")
			continue
		}
		parts = append(parts, strconv.Itoa(p))
	}
	if page.HasNext() {
		parts = append(parts, "›", "»")
	} else {
		parts = append(parts, "-", "-")
	}
	return strings.Join(parts, " ")
}
