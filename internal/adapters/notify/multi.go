package notify

import (
	"context"
	"errors"

	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

// Multi fans a message out to every notifier and joins their errors.
type Multi []ports.Notifier

func (m Multi) Notify(ctx context.Context, title, content string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, content); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
