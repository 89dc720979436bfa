package prometheus

import (
	"context"

	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

// NoOpPusher stands in for the Pushgateway when ONBOARD_PUSHGATEWAY_URL is unset.
type NoOpPusher struct{}

func NewNoOpPusher() *NoOpPusher {
	return &NoOpPusher{}
}

func (p *NoOpPusher) RecordRun(context.Context, ports.RunMetrics) error {
	return nil
}

// IsAvailable is always false so commands skip the push.
func (p *NoOpPusher) IsAvailable(context.Context) bool {
	return false
}

func (p *NoOpPusher) Close(context.Context) error {
	return nil
}
