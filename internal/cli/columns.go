package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/onboardtrack/internal/metrics"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the report columns and how each is computed",
	Long: `List every column of the onboarding report in order, with its
evaluation mode, the event types it reads and its post-signup window.

Examples:
  onboardtrack columns
  onboardtrack columns --events   # Only print the event types loaded`,
	RunE: runColumns,
}

var columnsEventsOnly bool

func init() {
	columnsCmd.Flags().BoolVar(&columnsEventsOnly, "events", false, "Print only the distinct event types")
}

// columns needs no configuration.
func runColumns(cmd *cobra.Command, args []string) error {
	return printColumns(os.Stdout, metrics.DefaultTable(), columnsEventsOnly)
}

func printColumns(out io.Writer, table []metrics.Spec, eventsOnly bool) error {
	if eventsOnly {
		for _, t := range metrics.EventTypes(table) {
			fmt.Fprintln(out, t)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCOLUMN\tMODE\tEVENTS\tWINDOW")
	for i, s := range table {
		events := strings.Join(s.Events, ",")
		if events == "" {
			events = "-"
		}
		window := "-"
		if s.Window != nil {
			window = fmt.Sprintf("%dh-%dh", s.Window.StartHour, s.Window.EndHour)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, s.Column, s.Mode, events, window)
	}
	return w.Flush()
}
