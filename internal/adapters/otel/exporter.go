package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

const (
	serviceName    = "onboardtrack"
	serviceVersion = "1.0.0"
)

var ErrDisabled = errors.New("OTEL exporter is disabled or endpoint not configured")

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

// Exporter exports run metrics to an OTEL Collector.
type Exporter struct {
	provider     *sdkmetric.MeterProvider
	runsTotal    metric.Int64Counter
	usersTotal   metric.Int64Counter
	cohortsHist  metric.Int64Histogram
	durationHist metric.Float64Histogram
}

// NewExporter creates an OTLP/gRPC metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, ErrDisabled
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	runsTotal, err := meter.Int64Counter(
		"onboardtrack_runs_total",
		metric.WithDescription("Completed command runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	usersTotal, err := meter.Int64Counter(
		"onboardtrack_users_total",
		metric.WithDescription("Users reported, by operating system"),
		metric.WithUnit("{user}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating users counter: %w", err)
	}

	cohortsHist, err := meter.Int64Histogram(
		"onboardtrack_cohorts",
		metric.WithDescription("Cohort summary rows per run"),
		metric.WithUnit("{cohort}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cohorts histogram: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"onboardtrack_run_duration_seconds",
		metric.WithDescription("Run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &Exporter{
		provider:     provider,
		runsTotal:    runsTotal,
		usersTotal:   usersTotal,
		cohortsHist:  cohortsHist,
		durationHist: durationHist,
	}, nil
}

// RecordRun records one command run.
func (e *Exporter) RecordRun(ctx context.Context, m ports.RunMetrics) error {
	cmd := attribute.String("command", m.Command)
	opt := metric.WithAttributes(cmd, attribute.Bool("failed", m.Failed))

	e.runsTotal.Add(ctx, 1, opt)
	e.durationHist.Record(ctx, m.Duration.Seconds(), opt)
	e.cohortsHist.Record(ctx, int64(m.Cohorts), metric.WithAttributes(cmd))

	for os, n := range m.ReportsByOS {
		e.usersTotal.Add(ctx, int64(n), metric.WithAttributes(cmd, attribute.String("os", os)))
	}
	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
