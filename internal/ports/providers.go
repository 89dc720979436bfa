package ports

import (
	"context"
	"time"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
)

// IdentityUser is an account as the identity provider knows it.
type IdentityUser struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// IdentityProvider lists accounts and resolves the platforms they signed in from.
type IdentityProvider interface {
	ListUsersCreatedSince(ctx context.Context, since time.Time) ([]IdentityUser, error)
	// DeviceOS returns the operating systems of the user's device credentials,
	// in credential order, or nil when none can be classified.
	DeviceOS(ctx context.Context, userID string) ([]string, error)
}

// Subscription is a billing subscription with its customer.
type Subscription struct {
	ID            string
	CustomerID    string
	CustomerEmail string
	Status        string
	CreatedAt     time.Time
}

// BillingProvider lists subscriptions from the payment processor.
type BillingProvider interface {
	ListSubscriptionsCreatedSince(ctx context.Context, since time.Time) ([]Subscription, error)
}

// Notifier posts a titled message to a chat channel.
type Notifier interface {
	Notify(ctx context.Context, title, content string) error
}

// ReportWriter renders assembled user reports to a file.
type ReportWriter interface {
	Write(path string, columns []string, reports []domain.UserReport) error
}

// SecretsLoader exports remotely stored configuration into the process environment.
type SecretsLoader interface {
	Load(ctx context.Context) (int, error)
}
