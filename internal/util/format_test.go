package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{500, "500"},
		{1500, "1.5K"},
		{1500000, "1.5M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%d)", tt.in)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Empty(t, FormatDate(time.Time{}))

	sydney := time.FixedZone("AEDT", 11*3600)
	ts := time.Date(2023, 1, 2, 8, 0, 0, 0, sydney)
	assert.Equal(t, "2023-01-01", FormatDate(ts), "date is taken in UTC")
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2023-01-02")
	assert.NoError(t, err)

	for _, in := range []string{"", "Unknown", "2023-1-2", "2023-01-02T00:00:00Z"} {
		_, err := ParseDate(in)
		assert.Error(t, err, "ParseDate(%q)", in)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2023, 1, 2, 3, 4, 5, 600000000, time.UTC)
	got := ParseTimestamp("2023-01-02T03:04:05.6Z")
	assert.True(t, got.Equal(want), "ParseTimestamp() = %v, want %v", got, want)
	assert.True(t, ParseTimestamp("not a time").IsZero())
}

func TestDaysBetween(t *testing.T) {
	at := func(d, h int) time.Time { return time.Date(2023, 1, d, h, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same instant", at(1, 0), at(1, 0), 1},
		{"same date", at(1, 1), at(1, 23), 1},
		{"one week", at(1, 0), at(8, 0), 8},
		{"crosses midnight", at(1, 23), at(2, 1), 2},
		{"reversed", at(8, 0), at(1, 0), 0},
		{"zero start", time.Time{}, at(1, 0), 0},
		{"zero end", at(1, 0), time.Time{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.a, tt.b))
		})
	}
}

func TestAgeInDays(t *testing.T) {
	now := time.Date(2023, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ts   time.Time
		want int
	}{
		{"zero", time.Time{}, 0},
		{"future", now.Add(time.Hour), 0},
		{"just under a day", now.Add(-23 * time.Hour), 0},
		{"exactly two days", now.Add(-48 * time.Hour), 2},
		{"nine and a half days", now.Add(-228 * time.Hour), 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeInDays(tt.ts, now))
		})
	}
}

func TestWeekStart(t *testing.T) {
	monday := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for d := 2; d <= 8; d++ {
		got := WeekStart(time.Date(2023, 1, d, 15, 30, 0, 0, time.UTC))
		assert.True(t, got.Equal(monday), "WeekStart(Jan %d) = %v, want %v", d, got, monday)
	}
	assert.Equal(t, 9, WeekStart(time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)).Day(), "a Monday is its own week start")
}
