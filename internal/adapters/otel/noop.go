package otel

import (
	"context"

	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

// NoOpExporter drops run metrics. Commands use it when neither the OTLP
// collector nor the Pushgateway is configured.
type NoOpExporter struct{}

func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

// RecordRun discards the report or conversion run summary.
func (e *NoOpExporter) RecordRun(context.Context, ports.RunMetrics) error {
	return nil
}

func (e *NoOpExporter) Close(context.Context) error {
	return nil
}
