// Package conversion reports signups, subscriptions and the conversion rate
// between them per operating system over the last 30 days and 24 hours.
package conversion

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

const (
	commandName = "conversion"
	monthWindow = 30 * 24 * time.Hour
	dayWindow   = 24 * time.Hour
	// revenueCatSyncWindow is how recently RevenueCat data must have synced
	// for a subscriber to count.
	revenueCatSyncWindow = 14 * 24 * time.Hour
)

// Person is a signup or subscriber attributed to an operating system.
type Person struct {
	Key       string
	OS        string
	CreatedAt time.Time
}

// Message is one titled notification.
type Message struct {
	Title   string
	Content string
}

// Report holds the resolved populations and the rendered messages.
type Report struct {
	Signups30d, Signups24h             []Person
	Subscriptions30d, Subscriptions24h []Person
	Messages                           []Message
}

// Service builds and publishes the conversion report.
type Service struct {
	identity   ports.IdentityProvider
	billing    ports.BillingProvider
	users      ports.UserRepository
	engagement ports.EngagementRepository
	notifier   ports.Notifier
	exporter   ports.MetricsExporter
	now        func() time.Time
}

func NewService(identity ports.IdentityProvider, billing ports.BillingProvider, users ports.UserRepository, engagement ports.EngagementRepository, notifier ports.Notifier, exporter ports.MetricsExporter, now func() time.Time) *Service {
	return &Service{
		identity:   identity,
		billing:    billing,
		users:      users,
		engagement: engagement,
		notifier:   notifier,
		exporter:   exporter,
		now:        now,
	}
}

type sources struct {
	signups30d, signups24h []ports.IdentityUser
	subs30d, subs24h       []ports.Subscription
	revenueCat             []domain.User
}

// Build fetches both windows and renders the three messages.
func (s *Service) Build(ctx context.Context) (*Report, error) {
	now := s.now()
	from30d, from24h := now.Add(-monthWindow), now.Add(-dayWindow)

	var src sources
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		src.signups30d, err = s.identity.ListUsersCreatedSince(gctx, from30d)
		return err
	})
	g.Go(func() (err error) {
		src.signups24h, err = s.identity.ListUsersCreatedSince(gctx, from24h)
		return err
	})
	g.Go(func() (err error) {
		src.subs30d, err = s.billing.ListSubscriptionsCreatedSince(gctx, from30d)
		return err
	})
	g.Go(func() (err error) {
		src.subs24h, err = s.billing.ListSubscriptionsCreatedSince(gctx, from24h)
		return err
	})
	g.Go(func() (err error) {
		src.revenueCat, err = s.users.ListRevenueCatSubscribers(gctx, from30d, now.Add(-revenueCatSyncWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch conversion data: %w", err)
	}

	rep := &Report{}
	if err := s.resolveSignups(ctx, src, rep); err != nil {
		return nil, err
	}
	if err := s.resolveSubscriptions(ctx, src, from24h, rep); err != nil {
		return nil, err
	}

	rep.Messages = []Message{
		{Title: "Conversion Rate", Content: conversionMessage(rep.Subscriptions30d, rep.Signups30d)},
		{Title: "Signups", Content: countsMessage("Message 2: signups", "total signups", "Signups", rep.Signups24h, rep.Signups30d)},
		{Title: "Subscriptions", Content: countsMessage("Message 3: subscriptions", "total subscriptions", "Subscriptions", rep.Subscriptions24h, rep.Subscriptions30d)},
	}
	return rep, nil
}

func (s *Service) resolveSignups(ctx context.Context, src sources, rep *Report) error {
	var ids []string
	seen := make(map[string]bool)
	for _, u := range slices.Concat(src.signups30d, src.signups24h) {
		if !seen[u.ID] {
			seen[u.ID] = true
			ids = append(ids, u.ID)
		}
	}
	oses, err := s.signupOS(ctx, ids)
	if err != nil {
		return err
	}

	people := func(users []ports.IdentityUser) []Person {
		var out []Person
		for _, u := range users {
			if domain.IsInternalIdentity(u.Email) || domain.IsInternalIdentity(u.ID) {
				continue
			}
			out = append(out, Person{Key: u.ID, OS: oses[u.ID], CreatedAt: u.CreatedAt})
		}
		return out
	}
	rep.Signups30d = people(src.signups30d)
	rep.Signups24h = people(src.signups24h)
	return nil
}

// resolveSubscriptions unions Stripe subscribers with RevenueCat subscribers,
// keyed by datastore user id. RevenueCat subscribers are counted as Android.
func (s *Service) resolveSubscriptions(ctx context.Context, src sources, from24h time.Time, rep *Report) error {
	var customerIDs []string
	for _, sub := range slices.Concat(src.subs30d, src.subs24h) {
		if !slices.Contains(customerIDs, sub.CustomerID) {
			customerIDs = append(customerIDs, sub.CustomerID)
		}
	}
	byCustomer, oses, err := s.subscriberOS(ctx, customerIDs)
	if err != nil {
		return err
	}

	stripePeople := func(subs []ports.Subscription) []Person {
		var out []Person
		for _, sub := range subs {
			if sub.CustomerID == "" || domain.IsInternalIdentity(sub.CustomerEmail) {
				continue
			}
			p := Person{Key: "stripe:" + sub.CustomerID, OS: domain.OSUnknown, CreatedAt: sub.CreatedAt}
			if u, ok := byCustomer[sub.CustomerID]; ok {
				p.Key, p.OS = u.ID, oses[sub.CustomerID]
			} else {
				logging.Warn().Str("customer", sub.CustomerID).Msg("no user found for stripe customer")
			}
			out = append(out, p)
		}
		return out
	}

	var rc30d, rc24h []Person
	for _, u := range src.revenueCat {
		p := Person{Key: u.ID, OS: domain.OSAndroid, CreatedAt: u.CreatedAt}
		rc30d = append(rc30d, p)
		if !u.CreatedAt.Before(from24h) {
			rc24h = append(rc24h, p)
		}
	}

	rep.Subscriptions30d = union(stripePeople(src.subs30d), rc30d)
	rep.Subscriptions24h = union(stripePeople(src.subs24h), rc24h)
	return nil
}

// union keeps the first position of each key; later entries win.
func union(a, b []Person) []Person {
	index := make(map[string]int)
	var out []Person
	for _, p := range slices.Concat(a, b) {
		if i, ok := index[p.Key]; ok {
			out[i] = p
			continue
		}
		index[p.Key] = len(out)
		out = append(out, p)
	}
	return out
}

// Run builds the report, writes the messages to outputPath and sends each
// one to the notifier in order. Notification failures are logged.
func (s *Service) Run(ctx context.Context, outputPath string) (rep *Report, err error) {
	start := time.Now()
	defer func() {
		m := ports.RunMetrics{Command: commandName, Duration: time.Since(start), Failed: err != nil}
		if rep != nil {
			m.Users = len(rep.Signups30d)
			m.ReportsByOS = countByOS(rep.Signups30d)
		}
		if recErr := s.exporter.RecordRun(ctx, m); recErr != nil {
			logging.Warn().Err(recErr).Msg("failed to record run metrics")
		}
	}()

	rep, err = s.Build(ctx)
	if err != nil {
		if writeErr := writeMessages(outputPath, errorMessages(err)); writeErr != nil {
			logging.Error().Err(writeErr).Msg("failed to write error output")
		}
		return nil, err
	}

	if err := writeMessages(outputPath, rep.Messages); err != nil {
		return rep, err
	}
	logging.Info().Str("path", outputPath).
		Int("signups", len(rep.Signups30d)).
		Int("subscriptions", len(rep.Subscriptions30d)).
		Msg("wrote conversion report")

	for _, m := range rep.Messages {
		if err := s.notifier.Notify(ctx, m.Title, m.Content); err != nil {
			logging.Warn().Err(err).Str("title", m.Title).Msg("failed to send conversion message")
		}
	}
	return rep, nil
}

func errorMessages(err error) []Message {
	return []Message{
		{Content: "ERROR: " + err.Error()},
		{Content: "ERROR"},
		{Content: "ERROR"},
	}
}

func writeMessages(path string, msgs []Message) error {
	if path == "" {
		return nil
	}
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Content
	}
	if err := os.WriteFile(path, []byte(strings.Join(parts, "\n\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write conversion report: %w", err)
	}
	return nil
}

func countByOS(people []Person) map[string]int {
	out := make(map[string]int)
	for _, p := range people {
		out[p.OS]++
	}
	return out
}
