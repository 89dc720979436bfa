package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/onboardtrack/internal/adapters/xlsx"
	"github.com/emiliopalmerini/onboardtrack/internal/infrastructure/config"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
	"github.com/emiliopalmerini/onboardtrack/internal/metrics"
	"github.com/emiliopalmerini/onboardtrack/internal/onboarding"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the onboarding tracking report",
	Long: `Generate the onboarding tracking report for recent signups.

Writes one workbook sheet per operating system and a CSV cohort summary
grouped by operating system and signup week.

Examples:
  onboardtrack report                              # Paths from the environment
  onboardtrack report --xlsx out.xlsx --csv out.csv
  onboardtrack report --lookback-days 14 --notify  # Post a digest to Slack and Cliq
  onboardtrack report --csv ""                     # Skip the summary CSV`,
	RunE: runReport,
}

// Flags
var (
	reportCSV      string
	reportXLSX     string
	reportNotify   bool
	reportLookback int
)

func init() {
	reportCmd.Flags().StringVar(&reportCSV, "csv", "", "Cohort summary CSV path (default from ONBOARD_SUMMARY_CSV)")
	reportCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "Workbook path (default from ONBOARD_REPORT_XLSX)")
	reportCmd.Flags().BoolVar(&reportNotify, "notify", false, "Send a digest to the configured chat webhooks")
	reportCmd.Flags().IntVar(&reportLookback, "lookback-days", 0, "Override ONBOARD_LOOKBACK_DAYS")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadOnboarding()
	if err != nil {
		return err
	}
	if reportLookback > 0 {
		cfg.Report.LookbackDays = reportLookback
	}

	opts := onboarding.Options{
		CSVPath:  cfg.Report.CSVPath,
		XLSXPath: cfg.Report.XLSXPath,
		Notify:   reportNotify,
	}
	if cmd.Flags().Changed("csv") {
		opts.CSVPath = reportCSV
	}
	if cmd.Flags().Changed("xlsx") {
		opts.XLSXPath = reportXLSX
	}

	svc, app, err := newOnboardingService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeApp(app)

	res, err := svc.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("onboarding report failed: %w", err)
	}

	fmt.Printf("Users: %d\n", len(res.Reports))
	if len(res.Reports) > 0 {
		if opts.XLSXPath != "" {
			fmt.Printf("Workbook: %s\n", opts.XLSXPath)
		}
		if opts.CSVPath != "" {
			fmt.Printf("Summary:  %s\n", opts.CSVPath)
		}
	}
	return nil
}

func newOnboardingService(ctx context.Context, cfg *config.Onboarding) (*onboarding.Service, *AppContext, error) {
	table := metrics.DefaultTable()
	assembler, err := metrics.NewAssembler(table, time.Now)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid metric table: %w", err)
	}

	app, err := NewAppContext(ctx, cfg.Database, cfg.Auth0, cfg.Metrics)
	if err != nil {
		return nil, nil, err
	}

	fetcher := onboarding.NewFetcher(app.Users, app.Engagement, app.Identity, onboarding.FetchOptions{
		Lookback:    time.Duration(cfg.Report.LookbackDays) * 24 * time.Hour,
		ChunkSize:   cfg.Report.ChunkSize,
		Concurrency: cfg.Report.FetchConcurrency,
		EventTypes:  metrics.EventTypes(table),
	}, time.Now)

	svc := onboarding.NewService(fetcher, assembler, xlsx.NewWriter(), app.Exporter, newNotifier(cfg.Slack, cfg.Cliq))
	return svc, app, nil
}

func closeApp(app *AppContext) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Close(ctx); err != nil {
		logging.Warn().Err(err).Msg("failed to flush metrics exporters")
	}
}
