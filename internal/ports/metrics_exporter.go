package ports

import (
	"context"
	"time"
)

// MetricsExporter exports run metrics to an external observability system.
type MetricsExporter interface {
	// RecordRun records the outcome of one command run.
	RecordRun(ctx context.Context, m RunMetrics) error
	// Close flushes pending metrics and releases the exporter.
	Close(ctx context.Context) error
}

// RunMetrics summarises one report or conversion run.
type RunMetrics struct {
	Command     string
	Users       int
	ReportsByOS map[string]int
	Cohorts     int
	Duration    time.Duration
	Failed      bool
}
