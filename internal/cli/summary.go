package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/onboardtrack/internal/infrastructure/config"
	"github.com/emiliopalmerini/onboardtrack/internal/summary"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the cohort summary CSV to stdout",
	Long: `Build the onboarding report and print only the cohort summary.

Nothing is written to disk and no notifications are sent.

Examples:
  onboardtrack summary
  onboardtrack summary --lookback-days 7 > cohorts.csv`,
	RunE: runSummary,
}

var summaryLookback int

func init() {
	summaryCmd.Flags().IntVar(&summaryLookback, "lookback-days", 0, "Override ONBOARD_LOOKBACK_DAYS")
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadOnboarding()
	if err != nil {
		return err
	}
	if summaryLookback > 0 {
		cfg.Report.LookbackDays = summaryLookback
	}

	svc, app, err := newOnboardingService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeApp(app)

	res, err := svc.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	return summary.WriteCSV(os.Stdout, res.Summary)
}
