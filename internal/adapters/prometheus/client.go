package prometheus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

const jobName = "onboardtrack"

var ErrDisabled = errors.New("Pushgateway URL not configured")

// Pusher pushes run gauges to a Prometheus Pushgateway, grouped by command.
type Pusher struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	users       *prometheus.GaugeVec
	cohorts     prometheus.Gauge
	duration    prometheus.Gauge
	failed      prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewPusher creates a pusher for the Pushgateway at url.
func NewPusher(url string) (*Pusher, error) {
	if url == "" {
		return nil, ErrDisabled
	}
	return &Pusher{
		baseURL: strings.TrimRight(url, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
		users: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "onboardtrack_last_run_users",
			Help: "Users in the last run, by operating system.",
		}, []string{"os"}),
		cohorts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onboardtrack_last_run_cohorts",
			Help: "Cohort summary rows in the last run.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onboardtrack_last_run_duration_seconds",
			Help: "Duration of the last run.",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onboardtrack_last_run_failed",
			Help: "1 if the last run failed.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onboardtrack_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
	}, nil
}

// RecordRun sets the gauges and pushes them, replacing the command's group.
func (p *Pusher) RecordRun(ctx context.Context, m ports.RunMetrics) error {
	p.users.Reset()
	for os, n := range m.ReportsByOS {
		p.users.WithLabelValues(os).Set(float64(n))
	}
	p.cohorts.Set(float64(m.Cohorts))
	p.duration.Set(m.Duration.Seconds())

	pusher := push.New(p.baseURL, jobName).
		Client(p.httpClient).
		Grouping("command", m.Command).
		Collector(p.users).
		Collector(p.cohorts).
		Collector(p.duration).
		Collector(p.failed)

	if m.Failed {
		p.failed.Set(1)
	} else {
		p.failed.Set(0)
		p.lastSuccess.Set(float64(p.now().Unix()))
		pusher = pusher.Collector(p.lastSuccess)
	}

	// Failed runs use Add so the last success timestamp survives.
	var err error
	if m.Failed {
		err = pusher.AddContext(ctx)
	} else {
		err = pusher.PushContext(ctx)
	}
	if err != nil {
		return fmt.Errorf("pushing run metrics: %w", err)
	}
	return nil
}

// IsAvailable checks if the Pushgateway is reachable.
func (p *Pusher) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/-/ready", nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (p *Pusher) Close(ctx context.Context) error {
	return nil
}
