package onboarding

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
	"github.com/emiliopalmerini/onboardtrack/internal/metrics"
	"github.com/emiliopalmerini/onboardtrack/internal/ports"
	"github.com/emiliopalmerini/onboardtrack/internal/summary"
	"github.com/emiliopalmerini/onboardtrack/internal/util"
)

const (
	commandName       = "report"
	notificationTitle = "Onboarding Report"
)

// Source yields the bundles to report on.
type Source interface {
	Fetch(ctx context.Context) ([]domain.UserBundle, error)
}

// Options selects the outputs of a run. Empty paths skip that output.
type Options struct {
	CSVPath  string
	XLSXPath string
	Notify   bool
}

// Result is the outcome of building a report.
type Result struct {
	Columns []string
	Reports []domain.UserReport
	Summary []domain.CohortSummaryRow
}

// ReportsByOS counts reports per primary OS.
func (r *Result) ReportsByOS() map[string]int {
	counts := make(map[string]int)
	for _, rep := range r.Reports {
		counts[rep.OS()]++
	}
	return counts
}

// Service builds and exports the onboarding report.
type Service struct {
	source    Source
	assembler *metrics.Assembler
	writer    ports.ReportWriter
	exporter  ports.MetricsExporter
	notifier  ports.Notifier
}

func NewService(source Source, assembler *metrics.Assembler, writer ports.ReportWriter, exporter ports.MetricsExporter, notifier ports.Notifier) *Service {
	return &Service{
		source:    source,
		assembler: assembler,
		writer:    writer,
		exporter:  exporter,
		notifier:  notifier,
	}
}

// Build fetches every bundle and evaluates it; each fetched user yields
// exactly one report, in fetch order.
func (s *Service) Build(ctx context.Context) (*Result, error) {
	bundles, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: s.assembler.Columns()}
	res.Reports = make([]domain.UserReport, len(bundles))
	for i, b := range bundles {
		res.Reports[i] = s.assembler.Assemble(b)
	}
	res.Summary = summary.Aggregate(res.Reports)
	return res, nil
}

// Run builds the report, writes the summary CSV and the workbook, records run
// metrics and optionally posts a short summary. A run with no users writes nothing.
func (s *Service) Run(ctx context.Context, opts Options) (res *Result, err error) {
	start := time.Now()
	defer func() {
		m := ports.RunMetrics{Command: commandName, Duration: time.Since(start), Failed: err != nil}
		if res != nil {
			m.Users = len(res.Reports)
			m.ReportsByOS = res.ReportsByOS()
			m.Cohorts = len(res.Summary)
		}
		if recErr := s.exporter.RecordRun(ctx, m); recErr != nil {
			logging.Warn().Err(recErr).Msg("failed to record run metrics")
		}
	}()

	res, err = s.Build(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Reports) == 0 {
		logging.Info().Msg("no users matched, nothing to report")
		return res, nil
	}
	logging.Info().Int("users", len(res.Reports)).Int("cohorts", len(res.Summary)).Msg("assembled onboarding report")

	if opts.CSVPath != "" {
		if err := writeSummary(opts.CSVPath, res.Summary); err != nil {
			return res, err
		}
		logging.Info().Str("path", opts.CSVPath).Msg("wrote summary csv")
	}

	if opts.XLSXPath != "" {
		if err := s.writer.Write(opts.XLSXPath, res.Columns, res.Reports); err != nil {
			return res, fmt.Errorf("failed to export report: %w", err)
		}
		logging.Info().Str("path", opts.XLSXPath).Msg("wrote report workbook")
	}

	if opts.Notify {
		if err := s.notifier.Notify(ctx, notificationTitle, Digest(res)); err != nil {
			logging.Warn().Err(err).Msg("failed to send report notification")
		}
	}
	return res, nil
}

func writeSummary(path string, rows []domain.CohortSummaryRow) error {
	var buf bytes.Buffer
	if err := summary.WriteCSV(&buf, rows); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// Digest renders a short plain-text run summary: users per OS in sheet order,
// then the activation rate of each OS's latest signup week.
func Digest(res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Users: %s\n", util.FormatNumber(int64(len(res.Reports))))

	byOS := res.ReportsByOS()
	for _, name := range domain.SheetOrder {
		if n := byOS[name]; n > 0 {
			fmt.Fprintf(&b, "  • %s: %s\n", name, util.FormatNumber(int64(n)))
		}
	}

	latest := make(map[string]domain.CohortSummaryRow)
	for _, row := range res.Summary {
		if row.SignupWeek == domain.UnknownWeek {
			continue
		}
		if cur, ok := latest[row.OperatingSystem]; !ok || row.SignupWeek > cur.SignupWeek {
			latest[row.OperatingSystem] = row
		}
	}
	for _, name := range domain.SheetOrder {
		row, ok := latest[name]
		if !ok {
			continue
		}
		rates := row.Rates()
		fmt.Fprintf(&b, "%s week of %s: %.2f%% activated (%d/%d)\n",
			name, row.SignupWeek, rates.Activated, row.ActivatedUsers, row.TotalUsers)
	}
	return strings.TrimRight(b.String(), "\n")
}
