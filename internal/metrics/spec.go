package metrics

import (
	"time"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
)

// Mode selects the accessor that evaluates a Spec.
type Mode string

const (
	ModeUserID             Mode = "user_id"
	ModeUpdatedDate        Mode = "updated_date"
	ModeFirstLoginDate     Mode = "first_login_date"
	ModeSubscriptionStatus Mode = "subscription_status"
	ModeFirstMatch         Mode = "first_match"
	ModeMultiTypeExists    Mode = "multi_type_exists"
	ModeMobileSignup       Mode = "mobile_signup"
	ModeMobileSignupDate   Mode = "mobile_signup_date"
	ModeDistinctDayCount   Mode = "distinct_day_count"
	ModeDistinctDayPercent Mode = "distinct_day_percent"
	ModeEventCount         Mode = "event_count"
	ModePropertyExtract    Mode = "property_extract"
	ModeNumericSum         Mode = "numeric_sum"
	ModeAvgHoursPerWeek    Mode = "avg_hours_per_week"
	ModeAvgRating          Mode = "avg_rating"
	ModeQuitWithinDays     Mode = "quit_within_days"
	ModeActivityCount      Mode = "activity_count"
	ModeFocusSessionCount  Mode = "focus_session_count"
)

// Window is an inclusive range of hours after signup.
type Window struct {
	StartHour int
	EndHour   int
}

// Contains reports whether ts falls inside the window anchored at signup.
func (w Window) Contains(signup, ts time.Time) bool {
	start := signup.Add(time.Duration(w.StartHour) * time.Hour)
	end := signup.Add(time.Duration(w.EndHour) * time.Hour)
	return !ts.Before(start) && !ts.After(end)
}

// DayWindow returns the window of post-signup day n (1-based).
// Day 1 spans hours 0-24; later days start one hour after the previous day ends.
func DayWindow(n int) Window {
	if n <= 1 {
		return Window{StartHour: 0, EndHour: 24}
	}
	return Window{StartHour: 24*(n-1) + 1, EndHour: 24 * n}
}

// Spec declares how one report column is computed.
type Spec struct {
	Column string
	Events []string
	Mode   Mode

	// Window restricts ModeEventCount to a span after signup; nil counts every match.
	Window *Window

	// Properties are the payload keys probed, in order, by ModePropertyExtract.
	Properties []string

	// Field is the numeric payload key read by ModeNumericSum, ModeAvgHoursPerWeek and ModeAvgRating.
	Field string

	// Days is the threshold for ModeQuitWithinDays.
	Days int

	ActivityType domain.ActivityType
}

func (s Spec) matches(eventType string) bool {
	for _, t := range s.Events {
		if t == eventType {
			return true
		}
	}
	return false
}

func (s Spec) clone() Spec {
	c := s
	c.Events = append([]string(nil), s.Events...)
	c.Properties = append([]string(nil), s.Properties...)
	if s.Window != nil {
		w := *s.Window
		c.Window = &w
	}
	return c
}
