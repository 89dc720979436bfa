package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
)

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	a, err := NewAssembler(DefaultTable(), clock)
	require.NoError(t, err)
	return a
}

func metric(t *testing.T, r domain.UserReport, column string) domain.MetricResult {
	t.Helper()
	m, ok := r.Metric(column)
	require.True(t, ok, "column %q missing from report", column)
	return m
}

func TestDefaultTableShape(t *testing.T) {
	table := DefaultTable()
	require.Len(t, table, 151)
	assert.Equal(t, ColumnUserID, table[0].Column)
	assert.Equal(t, ColumnQuitWithin7Days, table[len(table)-1].Column)

	windows := 0
	for _, s := range table {
		if s.Window != nil {
			windows++
		}
	}
	assert.Equal(t, TrackedDays*4, windows)
}

func TestDefaultTableReturnsCopies(t *testing.T) {
	a := DefaultTable()
	a[0].Column = "mutated"
	a[11].Events[0] = "mutated"
	for _, s := range a {
		if s.Window != nil {
			s.Window.EndHour = 9999
			break
		}
	}

	b := DefaultTable()
	assert.Equal(t, ColumnUserID, b[0].Column)
	assert.NotEqual(t, "mutated", b[11].Events[0], "DefaultTable shares events between calls")
	for _, s := range b {
		if s.Window != nil {
			assert.NotEqual(t, 9999, s.Window.EndHour, "DefaultTable shares windows between calls")
		}
	}
}

func TestEventTypes(t *testing.T) {
	types := EventTypes(DefaultTable())
	seen := make(map[string]bool)
	for _, typ := range types {
		assert.False(t, seen[typ], "duplicate event type %q", typ)
		seen[typ] = true
	}
	for _, want := range []string{EventLoginHomemade, EventAppQuit, EventStartFocusManually, EventUninstall} {
		assert.Contains(t, types, want)
	}
}

func TestAssembleEmptyBundle(t *testing.T) {
	a := newTestAssembler(t)
	r := a.Assemble(domain.UserBundle{UserID: "u1"})

	require.Len(t, r.Metrics, len(a.Columns()))
	for i, m := range r.Metrics {
		assert.Equal(t, a.Columns()[i], m.Column)
		assert.Nil(t, m.ProvenanceAt, "%q provenance", m.Column)
		switch m.Value.Kind {
		case domain.KindBool:
			assert.False(t, m.Value.Bool, "%q on empty input", m.Column)
		case domain.KindNumber:
			assert.Zero(t, m.Value.Num, "%q on empty input", m.Column)
		}
	}
	assert.Equal(t, []string{domain.OSUnknown}, r.PrimaryOS)
	assert.Equal(t, domain.String(SubscriptionUnknown), metric(t, r, ColumnSubscriptionStatus).Value)
}

func TestAssembleMorningRoutineScenario(t *testing.T) {
	a := newTestAssembler(t)
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	b := domain.UserBundle{
		UserID:    "u1",
		CreatedAt: created,
		UpdatedAt: time.Date(2023, 1, 8, 0, 0, 0, 0, time.UTC),
		Events: []domain.Event{
			ev(EventCompleteMorningActivity, time.Date(2023, 1, 2, 8, 0, 0, 0, time.UTC)),
			ev(EventCompleteMorningActivity, time.Date(2023, 1, 2, 19, 0, 0, 0, time.UTC)),
		},
		Devices: []domain.Device{{OperatingSystem: domain.OSMacOS, CreatedAt: created}},
	}
	require.Equal(t, 8, ActiveDays(b))

	r := a.Assemble(b)
	assert.Equal(t, domain.Number(12.5), metric(t, r, "% of days since signup did morning routine habit").Value)
	assert.True(t, metric(t, r, ColumnDidActivate).Value.IsTrue())
	// 08:00 and 19:00 on Jan 2 are hours 32 and 43: day 2
	assert.Equal(t, domain.Int(2), metric(t, r, MorningOnDayColumn(2)).Value)
	assert.Equal(t, domain.Int(0), metric(t, r, MorningOnDayColumn(1)).Value)

	login := metric(t, r, ColumnFirstLoginDate)
	assert.Equal(t, domain.String("2023-01-01"), login.Value)
	assert.Equal(t, domain.HighlightNone, login.Highlight)
	assert.Equal(t, domain.String("2023-01-08"), metric(t, r, ColumnLastUpdatedDate).Value)
	assert.Equal(t, domain.OSMacOS, r.OS())
}

func TestAssembleSubscriptionStatus(t *testing.T) {
	r := newTestAssembler(t).Assemble(domain.UserBundle{RevenueCatStatus: "personal"})
	m := metric(t, r, ColumnSubscriptionStatus)
	assert.Equal(t, domain.String("personal"), m.Value)
	assert.Equal(t, domain.HighlightGreen, m.Highlight)
}

func TestAssembleHighlightOverrides(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2023, 1, d, 10, 0, 0, 0, time.UTC) }
	r := newTestAssembler(t).Assemble(domain.UserBundle{
		CreatedAt: day(1),
		UpdatedAt: day(4),
		Events: []domain.Event{
			ev(EventLoginHomemade, day(1)),
			ev(EventAppQuit, day(3)),
			ev(EventUninstall, day(3)),
		},
	})

	quit := metric(t, r, ColumnQuitWithin7Days)
	assert.True(t, quit.Value.IsTrue())
	assert.Equal(t, domain.HighlightRed, quit.Highlight)

	uninstall := metric(t, r, ColumnUninstalledApp)
	assert.Equal(t, domain.Int(1), uninstall.Value)
	assert.Equal(t, domain.HighlightRed, uninstall.Highlight)
}

func TestAssembleIsDeterministic(t *testing.T) {
	a := newTestAssembler(t)
	b := domain.UserBundle{
		UserID:    "u1",
		CreatedAt: signup,
		UpdatedAt: at(300),
		Events: []domain.Event{
			evData(EventOccupationSelected, at(1), domain.Payload{"occupation": "Engineer"}),
			ev(EventStartPomodoroManually, at(30)),
			ev(EventLoginHomemade, at(0.5)),
		},
		Activities: []domain.Activity{{Type: domain.ActivityBreak, CreatedAt: at(2)}},
	}
	assert.Equal(t, a.Assemble(b), a.Assemble(b))
}

func TestAssemblerOwnsTable(t *testing.T) {
	table := DefaultTable()
	a, err := NewAssembler(table, clock)
	require.NoError(t, err)

	table[0].Column = "changed"
	assert.Equal(t, ColumnUserID, a.Columns()[0], "Assembler observed caller mutation of its table")
}
