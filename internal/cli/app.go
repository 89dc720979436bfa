package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiliopalmerini/onboardtrack/internal/adapters/auth0"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/notify"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/otel"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/postgres"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/prometheus"
	"github.com/emiliopalmerini/onboardtrack/internal/infrastructure/config"
	"github.com/emiliopalmerini/onboardtrack/internal/infrastructure/database"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Pool       *pgxpool.Pool
	Users      ports.UserRepository
	Engagement ports.EngagementRepository
	Identity   ports.IdentityProvider
	Exporter   ports.MetricsExporter
}

// NewAppContext connects to the database and builds the shared clients.
func NewAppContext(ctx context.Context, db config.Database, a config.Auth0, m config.Metrics) (*AppContext, error) {
	pool, err := database.New(ctx, db.URL, db.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	return &AppContext{
		Pool:       pool,
		Users:      repos.Users,
		Engagement: repos.Engagement,
		Identity:   newIdentity(a),
		Exporter:   newExporter(ctx, m),
	}, nil
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close(ctx context.Context) error {
	var err error
	if a.Exporter != nil {
		err = a.Exporter.Close(ctx)
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	return err
}

func newIdentity(cfg config.Auth0) *auth0.Client {
	return auth0.NewClient(auth0.Config{
		Domain:       cfg.Domain,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Apps: auth0.ClientIDs{
			Mac:     cfg.MacClientID,
			Windows: cfg.WindowsClientID,
			Mobile:  cfg.MobileClientIDs,
		},
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
}

// newExporter returns every configured run metrics sink. A sink that fails to
// start is logged and skipped.
func newExporter(ctx context.Context, cfg config.Metrics) ports.MetricsExporter {
	var out fanout

	exp, err := otel.NewExporter(ctx, otel.Config{
		Endpoint: cfg.OTelEndpoint,
		Enabled:  cfg.OTelEnabled,
		Insecure: cfg.OTelInsecure,
	})
	switch {
	case err == nil:
		out = append(out, exp)
	case !errors.Is(err, otel.ErrDisabled):
		logging.Warn().Err(err).Msg("OTEL exporter unavailable, skipping")
	}

	pusher, err := prometheus.NewPusher(cfg.PushgatewayURL)
	switch {
	case err == nil:
		if !pusher.IsAvailable(ctx) {
			logging.Warn().Str("url", cfg.PushgatewayURL).Msg("pushgateway not ready, pushes may fail")
		}
		out = append(out, pusher)
	case !errors.Is(err, prometheus.ErrDisabled):
		logging.Warn().Err(err).Msg("pushgateway exporter unavailable, skipping")
	}

	if len(out) == 0 {
		return otel.NewNoOpExporter()
	}
	return out
}

// fanout records each run on several exporters.
type fanout []ports.MetricsExporter

func (f fanout) RecordRun(ctx context.Context, m ports.RunMetrics) error {
	var errs []error
	for _, e := range f {
		errs = append(errs, e.RecordRun(ctx, m))
	}
	return errors.Join(errs...)
}

func (f fanout) Close(ctx context.Context) error {
	var errs []error
	for _, e := range f {
		errs = append(errs, e.Close(ctx))
	}
	return errors.Join(errs...)
}

func newNotifier(slack config.Slack, cliq config.Cliq) ports.Notifier {
	return notify.Multi{
		notify.NewSlack(slack.WebhookURL),
		notify.NewCliq(cliq.WebhookURL, cliq.APIKey, cliq.Channel),
	}
}
