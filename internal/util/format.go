package util

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in reports.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// FormatNumber formats an int64 with K/M suffix for readability.
// Examples: 500 -> "500", 1500 -> "1.5K", 1500000 -> "1.5M"
func FormatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatDate formats t as a UTC calendar date (2006-01-02).
// Returns "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a strict YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ParseTimestamp parses RFC3339 timestamps with or without fractional seconds.
// Returns zero time if parsing fails.
func ParseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts the UTC calendar days from a to b inclusive, so two
// timestamps on the same date give 1. Returns 0 if either time is zero or
// b is on an earlier date than a.
func DaysBetween(a, b time.Time) int {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	diff := int(StartOfDay(b).Sub(StartOfDay(a)) / day)
	if diff < 0 {
		return 0
	}
	return diff + 1
}

// AgeInDays returns the number of whole days elapsed from ts to now.
// Returns 0 for the zero time or a timestamp in the future.
func AgeInDays(ts, now time.Time) int {
	if ts.IsZero() || !now.After(ts) {
		return 0
	}
	return int(now.Sub(ts) / day)
}

// WeekStart returns the Monday (UTC midnight) of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	d := StartOfDay(t)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return d.AddDate(0, 0, 1-weekday)
}
