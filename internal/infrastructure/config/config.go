package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Database holds Postgres connection configuration.
type Database struct {
	URL      string `envconfig:"DATABASE_CONNECTIONSTRING" validate:"required"`
	MaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10" validate:"min=1"`
}

// Auth0 holds Management API credentials and the application client ids
// used to tell desktop and mobile logins apart.
type Auth0 struct {
	Domain            string   `envconfig:"AUTH0_DOMAIN" validate:"required,hostname"`
	ClientID          string   `envconfig:"AUTH0_MANAGEMENT_CLIENT_ID" validate:"required"`
	ClientSecret      string   `envconfig:"AUTH0_MANAGEMENT_CLIENT_SECRET" validate:"required"`
	MacClientID       string   `envconfig:"AUTH0_MAC_CLIENT_ID" default:"dgMrlNC5mM634Sxi9SLqIqi0WvgVpwX7"`
	WindowsClientID   string   `envconfig:"AUTH0_WINDOWS_CLIENT_ID" default:"YAYPDa7sAVKuheZy3dYWyzNncOSZq98I"`
	MobileClientIDs   []string `envconfig:"AUTH0_MOBILE_CLIENT_IDS" default:"cZ2J5dR8FliHiTyOdlyk18wKottWxPaC,9hhQ3ymKQQsrAHkHlrVYzMPoJ9VZqrJ8"`
	RequestsPerSecond float64  `envconfig:"AUTH0_REQUESTS_PER_SECOND" default:"8" validate:"gt=0"`
}

// Stripe holds billing API credentials.
type Stripe struct {
	SecretKey string `envconfig:"STRIPE_SECRET_KEY" validate:"required"`
}

// Slack holds the incoming webhook; empty disables Slack.
type Slack struct {
	WebhookURL string `envconfig:"SLACK_SERVICE" validate:"omitempty,url"`
}

// Cliq holds the Zoho Cliq bot webhook; empty disables Cliq.
type Cliq struct {
	WebhookURL string `envconfig:"ZOHO_CLIQ_BACKEND_BOT_WEBHOOK" validate:"omitempty,url"`
	APIKey     string `envconfig:"ZOHO_CLIQ_API_KEY" validate:"required_with=WebhookURL"`
	Channel    string `envconfig:"ZOHO_CLIQ_CHANNEL"`
}

// Report holds onboarding report tuning.
type Report struct {
	LookbackDays     int    `envconfig:"ONBOARD_LOOKBACK_DAYS" default:"45" validate:"min=1"`
	ChunkSize        int    `envconfig:"ONBOARD_CHUNK_SIZE" default:"500" validate:"min=1"`
	FetchConcurrency int    `envconfig:"ONBOARD_FETCH_CONCURRENCY" default:"4" validate:"min=1"`
	CSVPath          string `envconfig:"ONBOARD_SUMMARY_CSV" default:"os_signup_week_summary.csv"`
	XLSXPath         string `envconfig:"ONBOARD_REPORT_XLSX" default:"onboarding_tracking_report.xlsx"`
}

// Metrics holds run metrics exporter configuration.
type Metrics struct {
	OTelEnabled    bool   `envconfig:"ONBOARD_OTEL_ENABLED"`
	OTelEndpoint   string `envconfig:"ONBOARD_OTEL_ENDPOINT" default:"localhost:4317" validate:"required_if=OTelEnabled true"`
	OTelInsecure   bool   `envconfig:"ONBOARD_OTEL_INSECURE"`
	PushgatewayURL string `envconfig:"ONBOARD_PUSHGATEWAY_URL" validate:"omitempty,url"`
}

// Secrets locates the dotenv blob in AWS Secrets Manager.
type Secrets struct {
	Name   string `envconfig:"ONBOARD_SECRET_NAME" default:"internAnalyticsDotEnv" validate:"required"`
	Region string `envconfig:"ONBOARD_SECRET_REGION" default:"ap-southeast-2" validate:"required"`
}

// Logging holds logger settings; command line flags override them.
type Logging struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error disabled"`
	Format string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json console"`
}

// Onboarding is the configuration of the report command.
type Onboarding struct {
	Database Database
	Auth0    Auth0
	Slack    Slack
	Cliq     Cliq
	Report   Report
	Metrics  Metrics
}

// Conversion is the configuration of the conversion command.
type Conversion struct {
	Database Database
	Auth0    Auth0
	Stripe   Stripe
	Cliq     Cliq
	Metrics  Metrics
	Output   ConversionOutput
}

// ConversionOutput is where the conversion messages are written.
type ConversionOutput struct {
	Path string `envconfig:"CONVERSION_OUTPUT" default:"conversion-rate.txt" validate:"required"`
}

var validate = validator.New()

// LoadOnboarding loads report configuration from environment variables.
func LoadOnboarding() (*Onboarding, error) {
	var cfg Onboarding
	if err := process(&cfg.Database, &cfg.Auth0, &cfg.Slack, &cfg.Cliq, &cfg.Report, &cfg.Metrics); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConversion loads conversion report configuration from environment variables.
func LoadConversion() (*Conversion, error) {
	var cfg Conversion
	if err := process(&cfg.Database, &cfg.Auth0, &cfg.Stripe, &cfg.Cliq, &cfg.Metrics, &cfg.Output); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSecrets loads the secrets location from environment variables.
func LoadSecrets() (*Secrets, error) {
	var cfg Secrets
	if err := process(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadLogging loads logger settings from environment variables.
func LoadLogging() (*Logging, error) {
	var cfg Logging
	if err := process(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// process fills each group from the environment and validates it.
func process(groups ...any) error {
	for _, g := range groups {
		if err := envconfig.Process("", g); err != nil {
			return err
		}
		if err := validate.Struct(g); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}
