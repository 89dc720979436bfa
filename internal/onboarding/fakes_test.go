package onboarding

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

type fakeUsers struct {
	users []domain.User
	since time.Time
}

func (f *fakeUsers) ListRecent(_ context.Context, since time.Time) ([]domain.User, error) {
	f.since = since
	return f.users, nil
}

func (f *fakeUsers) FindByAuth0IDs(context.Context, []string) ([]domain.User, error) {
	return nil, errors.New("not used")
}

func (f *fakeUsers) FindByStripeCustomerIDs(context.Context, []string) ([]domain.User, error) {
	return nil, errors.New("not used")
}

func (f *fakeUsers) ListRevenueCatSubscribers(context.Context, time.Time, time.Time) ([]domain.User, error) {
	return nil, errors.New("not used")
}

type fakeEngagement struct {
	mu         sync.Mutex
	chunks     [][]string
	eventTypes []string
	events     map[string][]domain.Event
	activities map[string][]domain.Activity
	sessions   map[string][]domain.FocusSession
	devices    map[string][]domain.Device
	devicesErr error
}

func pick[T any](all map[string][]T, ids []string) map[string][]T {
	out := make(map[string][]T)
	for _, id := range ids {
		if v, ok := all[id]; ok {
			out[id] = v
		}
	}
	return out
}

func (f *fakeEngagement) ListTrackEvents(_ context.Context, ids, types []string) (map[string][]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, slices.Clone(ids))
	f.eventTypes = types
	return pick(f.events, ids), nil
}

func (f *fakeEngagement) ListActivities(_ context.Context, ids []string) (map[string][]domain.Activity, error) {
	return pick(f.activities, ids), nil
}

func (f *fakeEngagement) ListFocusSessions(_ context.Context, ids []string) (map[string][]domain.FocusSession, error) {
	return pick(f.sessions, ids), nil
}

func (f *fakeEngagement) ListDevices(_ context.Context, ids []string) (map[string][]domain.Device, error) {
	if f.devicesErr != nil {
		return nil, f.devicesErr
	}
	return pick(f.devices, ids), nil
}

type fakeIdentity struct {
	mu    sync.Mutex
	asked []string
	oses  map[string][]string
	err   map[string]error
}

func (f *fakeIdentity) ListUsersCreatedSince(context.Context, time.Time) ([]ports.IdentityUser, error) {
	return nil, errors.New("not used")
}

func (f *fakeIdentity) DeviceOS(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	f.asked = append(f.asked, userID)
	f.mu.Unlock()
	if err := f.err[userID]; err != nil {
		return nil, err
	}
	return f.oses[userID], nil
}

type fakeWriter struct {
	path    string
	columns []string
	reports []domain.UserReport
	err     error
}

func (f *fakeWriter) Write(path string, columns []string, reports []domain.UserReport) error {
	f.path, f.columns, f.reports = path, columns, reports
	return f.err
}

type fakeExporter struct {
	runs []ports.RunMetrics
}

func (f *fakeExporter) RecordRun(_ context.Context, m ports.RunMetrics) error {
	f.runs = append(f.runs, m)
	return nil
}

func (f *fakeExporter) Close(context.Context) error { return nil }

type message struct{ title, content string }

type fakeNotifier struct {
	sent []message
}

func (f *fakeNotifier) Notify(_ context.Context, title, content string) error {
	f.sent = append(f.sent, message{title, content})
	return nil
}

type staticSource struct {
	bundles []domain.UserBundle
	err     error
}

func (s staticSource) Fetch(context.Context) ([]domain.UserBundle, error) {
	return s.bundles, s.err
}
