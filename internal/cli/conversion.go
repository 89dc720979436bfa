package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/onboardtrack/internal/adapters/notify"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/stripe"
	"github.com/emiliopalmerini/onboardtrack/internal/conversion"
	"github.com/emiliopalmerini/onboardtrack/internal/infrastructure/config"
	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

var conversionCmd = &cobra.Command{
	Use:   "conversion",
	Short: "Report signup to subscription conversion by platform",
	Long: `Compare Auth0 signups with Stripe and RevenueCat subscriptions over the
last 30 days and 24 hours, broken down by platform.

The three messages are written to the output file separated by blank lines
and posted to Zoho Cliq.

Examples:
  onboardtrack conversion
  onboardtrack conversion --output /tmp/conversion.txt
  onboardtrack conversion --no-notify`,
	RunE: runConversion,
}

// Flags
var (
	conversionOutput   string
	conversionNoNotify bool
)

func init() {
	conversionCmd.Flags().StringVarP(&conversionOutput, "output", "o", "", "Output file (default from CONVERSION_OUTPUT)")
	conversionCmd.Flags().BoolVar(&conversionNoNotify, "no-notify", false, "Do not post messages to Cliq")
}

func runConversion(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConversion()
	if err != nil {
		return err
	}
	if conversionOutput != "" {
		cfg.Output.Path = conversionOutput
	}

	app, err := NewAppContext(ctx, cfg.Database, cfg.Auth0, cfg.Metrics)
	if err != nil {
		return err
	}
	defer closeApp(app)

	var notifier ports.Notifier = notify.NewCliq(cfg.Cliq.WebhookURL, cfg.Cliq.APIKey, cfg.Cliq.Channel)
	if conversionNoNotify {
		notifier = notify.Multi{}
	}

	svc := conversion.NewService(
		app.Identity,
		stripe.NewClient(cfg.Stripe.SecretKey, ""),
		app.Users,
		app.Engagement,
		notifier,
		app.Exporter,
		time.Now,
	)

	rep, err := svc.Run(ctx, cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("conversion report failed: %w", err)
	}

	for _, m := range rep.Messages {
		fmt.Println(m.Content)
		fmt.Println()
	}
	return nil
}
