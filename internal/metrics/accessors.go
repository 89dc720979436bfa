package metrics

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/util"
)

// outcome is what an accessor decides: a value and the time of the record
// that governed it (zero when none did).
type outcome struct {
	value domain.Value
	at    time.Time
}

// input is the per-user state threaded through every accessor.
type input struct {
	bundle     *domain.UserBundle
	activeDays int
}

type accessor func(spec Spec, in input) outcome

// matching returns the events of the given types without mutating the source slice.
func matching(events []domain.Event, spec Spec) []domain.Event {
	var out []domain.Event
	for _, e := range events {
		if spec.matches(e.Type) {
			out = append(out, e)
		}
	}
	return out
}

// earliest picks the event with the smallest non-zero timestamp. Undated events
// only win when nothing is dated; ok is false for an empty list.
func earliest(events []domain.Event) (domain.Event, bool) {
	if len(events) == 0 {
		return domain.Event{}, false
	}
	best := events[0]
	for _, e := range events[1:] {
		if e.CreatedAt.IsZero() {
			continue
		}
		if best.CreatedAt.IsZero() || e.CreatedAt.Before(best.CreatedAt) {
			best = e
		}
	}
	return best, true
}

// chronological returns a time-ordered copy; undated events keep their relative order at the end.
func chronological(events []domain.Event) []domain.Event {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b domain.Event) int {
		switch {
		case a.CreatedAt.IsZero() && b.CreatedAt.IsZero():
			return 0
		case a.CreatedAt.IsZero():
			return 1
		case b.CreatedAt.IsZero():
			return -1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

func isLoginType(t string) bool {
	return t == EventLoginHomemade || t == EventLogin
}

func userID(_ Spec, in input) outcome {
	return outcome{value: domain.String(in.bundle.UserID)}
}

func updatedDate(_ Spec, in input) outcome {
	return outcome{value: domain.String(util.FormatDate(in.bundle.UpdatedAt))}
}

func firstLoginDate(spec Spec, in input) outcome {
	if e, ok := earliest(matching(in.bundle.Events, spec)); ok && !e.CreatedAt.IsZero() {
		return outcome{value: domain.String(util.FormatDate(e.CreatedAt)), at: e.CreatedAt}
	}
	return outcome{value: domain.String(util.FormatDate(in.bundle.CreatedAt))}
}

func subscriptionStatus(_ Spec, in input) outcome {
	if s := strings.TrimSpace(in.bundle.RevenueCatStatus); s != "" {
		return outcome{value: domain.String(s)}
	}
	return outcome{value: domain.String(SubscriptionUnknown)}
}

func firstMatch(spec Spec, in input) outcome {
	e, ok := earliest(matching(in.bundle.Events, spec))
	if len(spec.Events) == 1 && isLoginType(spec.Events[0]) {
		if !ok {
			return outcome{value: domain.String("")}
		}
		return outcome{value: domain.String(util.FormatDate(e.CreatedAt)), at: e.CreatedAt}
	}
	return outcome{value: domain.Bool(ok), at: e.CreatedAt}
}

func multiTypeExists(spec Spec, in input) outcome {
	e, ok := earliest(matching(in.bundle.Events, spec))
	return outcome{value: domain.Bool(ok), at: e.CreatedAt}
}

// mobileSignup reports whether the user's first signup event came from a phone.
func mobileSignup(spec Spec, in input) outcome {
	e, ok := earliest(matching(in.bundle.Events, spec))
	return outcome{value: domain.Bool(ok && domain.IsMobileOS(e.OperatingSystem)), at: e.CreatedAt}
}

func mobileSignupDate(spec Spec, in input) outcome {
	e, ok := earliest(matching(in.bundle.Events, spec))
	if ok && domain.IsMobileOS(e.OperatingSystem) {
		return outcome{value: domain.String(util.FormatDate(e.CreatedAt)), at: e.CreatedAt}
	}
	return outcome{value: domain.String(""), at: e.CreatedAt}
}

// distinctDays counts the UTC calendar dates with at least one matching dated event.
func distinctDays(spec Spec, events []domain.Event) (int, time.Time) {
	dates := make(map[time.Time]struct{})
	var first time.Time
	for _, e := range events {
		if !spec.matches(e.Type) || e.CreatedAt.IsZero() {
			continue
		}
		dates[util.StartOfDay(e.CreatedAt)] = struct{}{}
		if first.IsZero() || e.CreatedAt.Before(first) {
			first = e.CreatedAt
		}
	}
	return len(dates), first
}

func distinctDayCount(spec Spec, in input) outcome {
	n, first := distinctDays(spec, in.bundle.Events)
	return outcome{value: domain.Int(n), at: first}
}

func distinctDayPercent(spec Spec, in input) outcome {
	n, first := distinctDays(spec, in.bundle.Events)
	if in.activeDays <= 0 {
		return outcome{value: domain.Number(0), at: first}
	}
	return outcome{value: domain.Number(domain.Round(float64(n)*100/float64(in.activeDays), 1)), at: first}
}

// eventCount counts matching events, restricted to the spec window when one is set.
// A windowed count needs a signup time; without one it is 0.
func eventCount(spec Spec, in input) outcome {
	signup := in.bundle.CreatedAt
	if spec.Window != nil && signup.IsZero() {
		return outcome{value: domain.Int(0)}
	}

	var hits []domain.Event
	for _, e := range in.bundle.Events {
		if !spec.matches(e.Type) {
			continue
		}
		if spec.Window != nil && (e.CreatedAt.IsZero() || !spec.Window.Contains(signup, e.CreatedAt)) {
			continue
		}
		hits = append(hits, e)
	}
	e, _ := earliest(hits)
	return outcome{value: domain.Int(len(hits)), at: e.CreatedAt}
}

// propertyExtract joins the distinct values found under the first present key of each match.
func propertyExtract(spec Spec, in input) outcome {
	events := chronological(matching(in.bundle.Events, spec))
	seen := make(map[string]bool)
	var values []string
	for _, e := range events {
		raw, ok := e.Data.Lookup(spec.Properties...)
		if !ok {
			continue
		}
		s := util.ToText(raw)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		values = append(values, s)
	}
	e, _ := earliest(events)
	return outcome{value: domain.String(strings.Join(values, " ")), at: e.CreatedAt}
}

func sumField(events []domain.Event, field string) int64 {
	var total int64
	for _, e := range events {
		if v, ok := e.Data.Lookup(field); ok {
			total += util.ToInt64(v)
		}
	}
	return total
}

func numericSum(spec Spec, in input) outcome {
	events := matching(in.bundle.Events, spec)
	e, _ := earliest(events)
	return outcome{value: domain.Int(int(sumField(events, spec.Field))), at: e.CreatedAt}
}

// avgHoursPerWeek is total field minutes per week of activity, in hours.
func avgHoursPerWeek(spec Spec, in input) outcome {
	events := matching(in.bundle.Events, spec)
	e, _ := earliest(events)
	weeks := float64(max(in.activeDays, 1)) / 7
	hours := float64(sumField(events, spec.Field)) / weeks / 60
	return outcome{value: domain.Number(domain.Round(hours, 1)), at: e.CreatedAt}
}

func avgRating(spec Spec, in input) outcome {
	events := matching(in.bundle.Events, spec)
	if len(events) == 0 {
		return outcome{value: domain.Int(0)}
	}
	e, _ := earliest(events)
	avg := float64(sumField(events, spec.Field)) / float64(len(events))
	return outcome{value: domain.Number(math.Floor(avg + 0.5)), at: e.CreatedAt}
}

// quitWithinDays is true when the first quit happened within spec.Days
// calendar days of the first login, counting both days.
func quitWithinDays(spec Spec, in input) outcome {
	quit, ok := earliest(matching(in.bundle.Events, spec))
	if !ok || quit.CreatedAt.IsZero() {
		return outcome{value: domain.Bool(false)}
	}
	login, ok := earliest(matching(in.bundle.Events, Spec{Events: []string{EventLoginHomemade}}))
	if !ok || login.CreatedAt.IsZero() {
		return outcome{value: domain.Bool(false), at: quit.CreatedAt}
	}
	days := util.DaysBetween(login.CreatedAt, quit.CreatedAt)
	return outcome{value: domain.Bool(days <= spec.Days), at: quit.CreatedAt}
}

func activityCount(spec Spec, in input) outcome {
	var n int
	var first time.Time
	for _, a := range in.bundle.Activities {
		if a.Type != spec.ActivityType {
			continue
		}
		n++
		if !a.CreatedAt.IsZero() && (first.IsZero() || a.CreatedAt.Before(first)) {
			first = a.CreatedAt
		}
	}
	return outcome{value: domain.Int(n), at: first}
}

func focusSessionCount(_ Spec, in input) outcome {
	var first time.Time
	for _, f := range in.bundle.FocusSessions {
		if !f.CreatedAt.IsZero() && (first.IsZero() || f.CreatedAt.Before(first)) {
			first = f.CreatedAt
		}
	}
	return outcome{value: domain.Int(len(in.bundle.FocusSessions)), at: first}
}
