package ports

import (
	"context"
	"time"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
)

// UserRepository reads account rows from the application datastore.
type UserRepository interface {
	// ListRecent returns users created or updated at or after since, newest first.
	ListRecent(ctx context.Context, since time.Time) ([]domain.User, error)
	FindByAuth0IDs(ctx context.Context, auth0IDs []string) ([]domain.User, error)
	FindByStripeCustomerIDs(ctx context.Context, customerIDs []string) ([]domain.User, error)
	// ListRevenueCatSubscribers returns paying RevenueCat users created at or after
	// createdSince whose billing data was synced at or after syncedSince.
	ListRevenueCatSubscribers(ctx context.Context, createdSince, syncedSince time.Time) ([]domain.User, error)
}

// EngagementRepository reads per-user behavioral records, keyed by user id.
type EngagementRepository interface {
	ListTrackEvents(ctx context.Context, userIDs, eventTypes []string) (map[string][]domain.Event, error)
	ListActivities(ctx context.Context, userIDs []string) (map[string][]domain.Activity, error)
	ListFocusSessions(ctx context.Context, userIDs []string) (map[string][]domain.FocusSession, error)
	ListDevices(ctx context.Context, userIDs []string) (map[string][]domain.Device, error)
}
