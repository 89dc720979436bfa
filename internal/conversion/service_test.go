package conversion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

var fixedNow = time.Date(2023, 5, 31, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func ago(d time.Duration) time.Time { return fixedNow.Add(-d) }

type fakeIdentity struct {
	users []ports.IdentityUser
	oses  map[string][]string
	err   error
}

func (f *fakeIdentity) ListUsersCreatedSince(_ context.Context, since time.Time) ([]ports.IdentityUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []ports.IdentityUser
	for _, u := range f.users {
		if !u.CreatedAt.Before(since) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeIdentity) DeviceOS(_ context.Context, id string) ([]string, error) {
	return f.oses[id], nil
}

type fakeBilling struct {
	subs []ports.Subscription
}

func (f *fakeBilling) ListSubscriptionsCreatedSince(_ context.Context, since time.Time) ([]ports.Subscription, error) {
	var out []ports.Subscription
	for _, s := range f.subs {
		if !s.CreatedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeUsers struct {
	users      []domain.User
	revenueCat []domain.User
	rcCreated  time.Time
	rcSynced   time.Time
}

func (f *fakeUsers) ListRecent(context.Context, time.Time) ([]domain.User, error) {
	return nil, errors.New("not used")
}

func (f *fakeUsers) FindByAuth0IDs(_ context.Context, ids []string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if slices.Contains(ids, u.Auth0ID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) FindByStripeCustomerIDs(_ context.Context, ids []string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.StripeCustomerID != "" && slices.Contains(ids, u.StripeCustomerID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) ListRevenueCatSubscribers(_ context.Context, created, synced time.Time) ([]domain.User, error) {
	f.rcCreated, f.rcSynced = created, synced
	return f.revenueCat, nil
}

type fakeEngagement struct {
	devices map[string][]domain.Device
}

func (f *fakeEngagement) ListTrackEvents(context.Context, []string, []string) (map[string][]domain.Event, error) {
	return nil, errors.New("not used")
}

func (f *fakeEngagement) ListActivities(context.Context, []string) (map[string][]domain.Activity, error) {
	return nil, errors.New("not used")
}

func (f *fakeEngagement) ListFocusSessions(context.Context, []string) (map[string][]domain.FocusSession, error) {
	return nil, errors.New("not used")
}

func (f *fakeEngagement) ListDevices(_ context.Context, ids []string) (map[string][]domain.Device, error) {
	out := make(map[string][]domain.Device)
	for _, id := range ids {
		if d, ok := f.devices[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

type sent struct{ title, content string }

type fakeNotifier struct{ msgs []sent }

func (f *fakeNotifier) Notify(_ context.Context, title, content string) error {
	f.msgs = append(f.msgs, sent{title, content})
	return nil
}

type fakeExporter struct{ runs []ports.RunMetrics }

func (f *fakeExporter) RecordRun(_ context.Context, m ports.RunMetrics) error {
	f.runs = append(f.runs, m)
	return nil
}

func (f *fakeExporter) Close(context.Context) error { return nil }

type fixture struct {
	identity *fakeIdentity
	billing  *fakeBilling
	users    *fakeUsers
	notifier *fakeNotifier
	exporter *fakeExporter
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		identity: &fakeIdentity{
			users: []ports.IdentityUser{
				{ID: "auth0|mac", Email: "a@example.com", CreatedAt: ago(2 * time.Hour)},
				{ID: "auth0|win", Email: "b@example.com", CreatedAt: ago(10 * 24 * time.Hour)},
				{ID: "auth0|cred", Email: "c@example.com", CreatedAt: ago(20 * 24 * time.Hour)},
				{ID: "auth0|ghost", Email: "d@example.com", CreatedAt: ago(5 * time.Hour)},
				{ID: "auth0|staff", Email: "e@focusbear.io", CreatedAt: ago(3 * time.Hour)},
			},
			oses: map[string][]string{"auth0|cred": {"", domain.OSiOS}},
		},
		billing: &fakeBilling{subs: []ports.Subscription{
			{ID: "sub_1", CustomerID: "cus_mac", CustomerEmail: "a@example.com", CreatedAt: ago(time.Hour)},
			{ID: "sub_2", CustomerID: "cus_orphan", CustomerEmail: "x@example.com", CreatedAt: ago(3 * 24 * time.Hour)},
			{ID: "sub_3", CustomerID: "cus_staff", CustomerEmail: "ops@focusbear.io", CreatedAt: ago(time.Hour)},
		}},
		users: &fakeUsers{
			users: []domain.User{
				{ID: "db-mac", Auth0ID: "auth0|mac", StripeCustomerID: "cus_mac"},
				{ID: "db-win", Auth0ID: "auth0|win"},
				{ID: "db-cred", Auth0ID: "auth0|cred"},
			},
			revenueCat: []domain.User{
				{ID: "db-rc", CreatedAt: ago(6 * time.Hour)},
				{ID: "db-rc-old", CreatedAt: ago(9 * 24 * time.Hour)},
			},
		},
		notifier: &fakeNotifier{},
		exporter: &fakeExporter{},
	}
	engagement := &fakeEngagement{devices: map[string][]domain.Device{
		"db-mac": {{OperatingSystem: domain.OSMacOS}},
		"db-win": {{OperatingSystem: domain.OSUnknown}, {OperatingSystem: domain.OSWindows}},
	}}
	f.svc = NewService(f.identity, f.billing, f.users, engagement, f.notifier, f.exporter, clock)
	return f
}

func keysByOS(people []Person) map[string][]string {
	out := make(map[string][]string)
	for _, p := range people {
		out[p.OS] = append(out[p.OS], p.Key)
	}
	return out
}

func TestBuild_Populations(t *testing.T) {
	f := newFixture()
	rep, err := f.svc.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		domain.OSMacOS:   {"auth0|mac"},
		domain.OSWindows: {"auth0|win"},
		domain.OSiOS:     {"auth0|cred"},
		domain.OSUnknown: {"auth0|ghost"},
	}, keysByOS(rep.Signups30d))
	assert.Len(t, rep.Signups24h, 2)

	assert.Equal(t, map[string][]string{
		domain.OSMacOS:   {"db-mac"},
		domain.OSUnknown: {"stripe:cus_orphan"},
		domain.OSAndroid: {"db-rc", "db-rc-old"},
	}, keysByOS(rep.Subscriptions30d))
	assert.Equal(t, map[string][]string{
		domain.OSMacOS:   {"db-mac"},
		domain.OSAndroid: {"db-rc"},
	}, keysByOS(rep.Subscriptions24h))

	assert.Equal(t, ago(30*24*time.Hour), f.users.rcCreated)
	assert.Equal(t, ago(14*24*time.Hour), f.users.rcSynced)
}

func TestBuild_Messages(t *testing.T) {
	rep, err := newFixture().svc.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Messages, 3)

	assert.Equal(t, "Conversion Rate", rep.Messages[0].Title)
	assert.Equal(t, strings.Join([]string{
		"Message 1: conversion rate",
		"  • total conversion rate (last 30 days): 100.00% (4/4)",
		"  • total conversion rate Mac (last 30 days): 100.00% (1/1)",
		"  • total conversion rate Windows (last 30 days): 0.00% (0/1)",
		"  • total conversion rate iOS (last 30 days): 0.00% (0/1)",
		"  • total conversion rate Android (last 30 days): 0.00% (2/0)",
	}, "\n"), rep.Messages[0].Content)

	assert.Equal(t, strings.Join([]string{
		"Message 2: signups",
		"  • total signups: 2 (last 24hrs) / 4 (last 30 days)",
		"  • Mac: 1 (last 24hrs) / 1 (last 30 days)",
		"  • Windows: 0 (last 24hrs) / 1 (last 30 days)",
		"  • iOS: 0 (last 24hrs) / 1 (last 30 days)",
		"  • Android: 0 (last 24hrs) / 0 (last 30 days)",
		"  • Signups (unknown source): 1 (last 24hrs) / 1 (last 30 days)",
	}, "\n"), rep.Messages[1].Content)

	assert.Equal(t, "Subscriptions", rep.Messages[2].Title)
	assert.Contains(t, rep.Messages[2].Content, "  • total subscriptions: 2 (last 24hrs) / 4 (last 30 days)")
	assert.Contains(t, rep.Messages[2].Content, "  • Subscriptions (unknown source): 0 (last 24hrs) / 1 (last 30 days)")
}

func TestRun(t *testing.T) {
	f := newFixture()
	out := filepath.Join(t.TempDir(), "conversion-rate.txt")

	rep, err := f.svc.Run(context.Background(), out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, rep.Messages[0].Content+"\n\n"+rep.Messages[1].Content+"\n\n"+rep.Messages[2].Content, string(data))

	require.Len(t, f.notifier.msgs, 3)
	assert.Equal(t, []string{"Conversion Rate", "Signups", "Subscriptions"},
		[]string{f.notifier.msgs[0].title, f.notifier.msgs[1].title, f.notifier.msgs[2].title})

	require.Len(t, f.exporter.runs, 1)
	assert.Equal(t, "conversion", f.exporter.runs[0].Command)
	assert.Equal(t, 4, f.exporter.runs[0].Users)
}

func TestRun_FetchFailureWritesErrorFile(t *testing.T) {
	f := newFixture()
	f.identity.err = errors.New("auth0 unavailable")
	out := filepath.Join(t.TempDir(), "conversion-rate.txt")

	_, err := f.svc.Run(context.Background(), out)
	require.Error(t, err)

	data, readErr := os.ReadFile(out)
	require.NoError(t, readErr)
	assert.True(t, strings.HasPrefix(string(data), "ERROR: "))
	assert.Contains(t, string(data), "auth0 unavailable")
	assert.Empty(t, f.notifier.msgs)
	require.Len(t, f.exporter.runs, 1)
	assert.True(t, f.exporter.runs[0].Failed)
}

func TestRate(t *testing.T) {
	assert.Equal(t, "0.00", Rate(3, 0))
	assert.Equal(t, "33.33", Rate(1, 3))
	assert.Equal(t, "100.00", Rate(2, 2))
}

func TestUnion(t *testing.T) {
	got := union(
		[]Person{{Key: "a", OS: domain.OSMacOS}, {Key: "b", OS: domain.OSUnknown}},
		[]Person{{Key: "b", OS: domain.OSAndroid}, {Key: "c", OS: domain.OSAndroid}},
	)
	assert.Equal(t, []Person{
		{Key: "a", OS: domain.OSMacOS},
		{Key: "b", OS: domain.OSAndroid},
		{Key: "c", OS: domain.OSAndroid},
	}, got)
}
