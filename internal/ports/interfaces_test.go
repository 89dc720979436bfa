package ports_test

import (
	"testing"

	"github.com/emiliopalmerini/onboardtrack/internal/adapters/auth0"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/notify"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/otel"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/postgres"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/prometheus"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/secrets"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/stripe"
	"github.com/emiliopalmerini/onboardtrack/internal/adapters/xlsx"
	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

// Compile-time interface conformance checks.
// These verify that concrete adapters properly implement their port interfaces.

func TestUserRepositoryConformance(t *testing.T) {
	var _ ports.UserRepository = (*postgres.UserRepository)(nil)
}

func TestEngagementRepositoryConformance(t *testing.T) {
	var _ ports.EngagementRepository = (*postgres.EngagementRepository)(nil)
}

func TestIdentityProviderConformance(t *testing.T) {
	var _ ports.IdentityProvider = (*auth0.Client)(nil)
}

func TestBillingProviderConformance(t *testing.T) {
	var _ ports.BillingProvider = (*stripe.Client)(nil)
}

func TestNotifierConformance(t *testing.T) {
	var _ ports.Notifier = (*notify.Slack)(nil)
	var _ ports.Notifier = (*notify.Cliq)(nil)
	var _ ports.Notifier = notify.Multi(nil)
}

func TestReportWriterConformance(t *testing.T) {
	var _ ports.ReportWriter = (*xlsx.Writer)(nil)
}

func TestSecretsLoaderConformance(t *testing.T) {
	var _ ports.SecretsLoader = (*secrets.Loader)(nil)
}

func TestMetricsExporterConformance(t *testing.T) {
	var _ ports.MetricsExporter = (*otel.Exporter)(nil)
	var _ ports.MetricsExporter = (*otel.NoOpExporter)(nil)
	var _ ports.MetricsExporter = (*prometheus.Pusher)(nil)
	var _ ports.MetricsExporter = (*prometheus.NoOpPusher)(nil)
}
