// Package onboarding runs the onboarding tracking report: it loads recent
// users with their engagement records, evaluates the metric table for each
// and exports the per-user workbook and the cohort summary.
package onboarding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
	"github.com/emiliopalmerini/onboardtrack/internal/ports"
	"github.com/emiliopalmerini/onboardtrack/internal/util"
)

// FetchOptions tunes how users are loaded.
type FetchOptions struct {
	Lookback    time.Duration
	ChunkSize   int
	Concurrency int
	// EventTypes restricts the track events loaded; see metrics.EventTypes.
	EventTypes []string
}

// Fetcher loads user bundles from the datastore and resolves missing device
// operating systems through the identity provider.
type Fetcher struct {
	users      ports.UserRepository
	engagement ports.EngagementRepository
	identity   ports.IdentityProvider
	opts       FetchOptions
	now        func() time.Time
}

// NewFetcher creates a fetcher. identity may be nil, which disables the OS fallback.
func NewFetcher(users ports.UserRepository, engagement ports.EngagementRepository, identity ports.IdentityProvider, opts FetchOptions, now func() time.Time) *Fetcher {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 500
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Fetcher{users: users, engagement: engagement, identity: identity, opts: opts, now: now}
}

type engagement struct {
	events     map[string][]domain.Event
	activities map[string][]domain.Activity
	sessions   map[string][]domain.FocusSession
	devices    map[string][]domain.Device
}

// Fetch returns one bundle per non-internal user created or updated within the
// lookback window, newest first.
func (f *Fetcher) Fetch(ctx context.Context) ([]domain.UserBundle, error) {
	since := f.now().Add(-f.opts.Lookback)
	all, err := f.users.ListRecent(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, 0, len(all))
	for _, u := range all {
		if !u.IsInternal() {
			users = append(users, u)
		}
	}
	logging.Info().Int("users", len(users)).Int("internal", len(all)-len(users)).Time("since", since).Msg("loaded recent users")
	if len(users) == 0 {
		return nil, nil
	}

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	data, err := f.fetchEngagement(ctx, ids)
	if err != nil {
		return nil, err
	}

	bundles := make([]domain.UserBundle, len(users))
	for i, u := range users {
		if u.CreatedAt.IsZero() {
			logging.Warn().Str("user_id", u.ID).Msg("user has no created_at, evaluating with defaults")
		}
		bundles[i] = domain.UserBundle{
			UserID:           u.ID,
			CreatedAt:        u.CreatedAt,
			UpdatedAt:        u.UpdatedAt,
			RevenueCatStatus: u.RevenueCatStatus,
			Events:           data.events[u.ID],
			Activities:       data.activities[u.ID],
			FocusSessions:    data.sessions[u.ID],
			Devices:          data.devices[u.ID],
		}
	}

	if err := f.resolveOS(ctx, users, bundles); err != nil {
		return nil, err
	}
	return bundles, nil
}

// fetchEngagement loads every record kind for ids, chunk by chunk. Chunks run
// concurrently up to the configured limit and each chunk issues its four
// queries in parallel; the first failure cancels the rest.
func (f *Fetcher) fetchEngagement(ctx context.Context, ids []string) (*engagement, error) {
	out := &engagement{
		events:     make(map[string][]domain.Event),
		activities: make(map[string][]domain.Activity),
		sessions:   make(map[string][]domain.FocusSession),
		devices:    make(map[string][]domain.Device),
	}
	var mu sync.Mutex

	chunks := util.Chunk(ids, f.opts.ChunkSize)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)

	for n, chunk := range chunks {
		g.Go(func() error {
			start := time.Now()
			var (
				events     map[string][]domain.Event
				activities map[string][]domain.Activity
				sessions   map[string][]domain.FocusSession
				devices    map[string][]domain.Device
			)

			cg, cctx := errgroup.WithContext(gctx)
			cg.Go(func() (err error) {
				events, err = f.engagement.ListTrackEvents(cctx, chunk, f.opts.EventTypes)
				return err
			})
			cg.Go(func() (err error) {
				activities, err = f.engagement.ListActivities(cctx, chunk)
				return err
			})
			cg.Go(func() (err error) {
				sessions, err = f.engagement.ListFocusSessions(cctx, chunk)
				return err
			})
			cg.Go(func() (err error) {
				devices, err = f.engagement.ListDevices(cctx, chunk)
				return err
			})
			if err := cg.Wait(); err != nil {
				return fmt.Errorf("failed to fetch chunk %d/%d: %w", n+1, len(chunks), err)
			}

			mu.Lock()
			defer mu.Unlock()
			merge(out.events, events)
			merge(out.activities, activities)
			merge(out.sessions, sessions)
			merge(out.devices, devices)

			logging.Debug().Int("chunk", n+1).Int("of", len(chunks)).Int("users", len(chunk)).
				Dur("took", time.Since(start)).Msg("fetched engagement chunk")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func merge[T any](dst, src map[string][]T) {
	for k, v := range src {
		dst[k] = v
	}
}

// resolveOS asks the identity provider for users without a known device OS.
// Lookup failures are logged and leave the user Unknown.
func (f *Fetcher) resolveOS(ctx context.Context, users []domain.User, bundles []domain.UserBundle) error {
	if f.identity == nil {
		return nil
	}

	var pending []int
	for i, b := range bundles {
		if users[i].Auth0ID != "" && domain.PrimaryOS(b.Devices) == domain.OSUnknown {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	logging.Info().Int("users", len(pending)).Msg("resolving operating systems from device credentials")

	var resolved, unresolved int
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)

	for _, i := range pending {
		g.Go(func() error {
			oses, err := f.identity.DeviceOS(gctx, users[i].Auth0ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logging.Warn().Err(err).Str("user_id", users[i].ID).Msg("device credential lookup failed")
				oses = nil
			}

			mu.Lock()
			defer mu.Unlock()
			added := false
			for _, os := range oses {
				if domain.IsKnownOS(os) {
					bundles[i].Devices = append(bundles[i].Devices, domain.Device{OperatingSystem: os})
					added = true
				}
			}
			if added {
				resolved++
			} else {
				unresolved++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to resolve device os: %w", err)
	}

	logging.Info().Int("resolved", resolved).Int("unknown", unresolved).Msg("device os fallback complete")
	return nil
}
