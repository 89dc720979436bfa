package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/onboardtrack/internal/adapters/secrets"
	"github.com/emiliopalmerini/onboardtrack/internal/infrastructure/config"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "onboardtrack",
	Short: "Onboarding and conversion reporting for Focus Bear",
	Long: `onboardtrack turns recent signups into per-user onboarding reports.

It reads users and their engagement from Postgres, resolves platforms through
Auth0, evaluates the metric table, and writes a workbook per platform plus a
cohort summary. The conversion command compares Auth0 signups with Stripe and
RevenueCat subscriptions.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Flags
var (
	envFile     string
	loadSecrets bool
	logLevel    string
	logFormat   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from a dotenv file")
	rootCmd.PersistentFlags().BoolVar(&loadSecrets, "load-secrets", false, "Load environment variables from AWS Secrets Manager")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json or console (overrides LOG_FORMAT)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(conversionCmd)
	rootCmd.AddCommand(columnsCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup prepares the environment every command reads its configuration from.
func setup(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if err := initLogging(); err != nil {
		return err
	}

	if !loadSecrets {
		return nil
	}
	return loadSecretsFromAWS(cmd.Context())
}

func initLogging() error {
	cfg, err := config.LoadLogging()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Level = logLevel
	}
	if logFormat != "" {
		cfg.Format = logFormat
	}
	logging.Init(logging.Config{Level: cfg.Level, Format: cfg.Format})
	return nil
}

func loadSecretsFromAWS(ctx context.Context) error {
	cfg, err := config.LoadSecrets()
	if err != nil {
		return err
	}

	loader, err := secrets.NewLoader(ctx, cfg.Name, cfg.Region)
	if err != nil {
		return fmt.Errorf("failed to create secrets loader: %w", err)
	}

	n, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load secret %s: %w", cfg.Name, err)
	}
	logging.Info().Str("secret", cfg.Name).Int("vars", n).Msg("loaded environment from secrets manager")
	return nil
}
