package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCohortSummaryRow_Rates(t *testing.T) {
	tests := []struct {
		name     string
		row      CohortSummaryRow
		expected CohortRates
	}{
		{
			name: "normal case",
			row: CohortSummaryRow{
				TotalUsers:     10,
				ActivatedUsers: 3,
				PaidUsers:      2,
				DayCompleters:  [CompletionDays]int64{3, 2, 1},
			},
			expected: CohortRates{
				Activated:        30,
				Paid:             20,
				ActivatedWhoPaid: 66.67, // 2/3
				CompletedDay:     [CompletionDays]float64{30, 20, 10},
			},
		},
		{
			name: "zero activated, paid-of-activated is zero",
			row: CohortSummaryRow{
				TotalUsers: 4,
				PaidUsers:  1,
			},
			expected: CohortRates{
				Paid: 25,
			},
		},
		{
			name:     "empty row",
			row:      CohortSummaryRow{},
			expected: CohortRates{},
		},
		{
			name: "thirds round to two decimals",
			row: CohortSummaryRow{
				TotalUsers:     3,
				ActivatedUsers: 1,
			},
			expected: CohortRates{
				Activated: 33.33,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.row.Rates()
			assert.InDelta(t, tt.expected.Activated, got.Activated, floatDelta, "Activated")
			assert.InDelta(t, tt.expected.Paid, got.Paid, floatDelta, "Paid")
			assert.InDelta(t, tt.expected.ActivatedWhoPaid, got.ActivatedWhoPaid, floatDelta, "ActivatedWhoPaid")
			for i := range got.CompletedDay {
				assert.InDelta(t, tt.expected.CompletedDay[i], got.CompletedDay[i], floatDelta, "CompletedDay[%d]", i)
			}
		})
	}
}

func TestPrimaryOS(t *testing.T) {
	jan := func(d int) time.Time { return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		devices []Device
		want    string
	}{
		{"no devices", nil, OSUnknown},
		{"all unknown", []Device{{OperatingSystem: OSUnknown}, {OperatingSystem: ""}}, OSUnknown},
		{"earliest known wins", []Device{
			{OperatingSystem: OSWindows, CreatedAt: jan(5)},
			{OperatingSystem: OSUnknown, CreatedAt: jan(1)},
			{OperatingSystem: OSMacOS, CreatedAt: jan(2)},
		}, OSMacOS},
		{"undated devices keep input order", []Device{
			{OperatingSystem: OSiOS},
			{OperatingSystem: OSAndroid},
		}, OSiOS},
		{"dated before undated", []Device{
			{OperatingSystem: OSiOS},
			{OperatingSystem: OSAndroid, CreatedAt: jan(9)},
		}, OSAndroid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryOS(tt.devices))
		})
	}
}

func TestValueText(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), ""},
		{Bool(true), "TRUE"},
		{Bool(false), "FALSE"},
		{Number(12.5), "12.5"},
		{Int(3), "3"},
		{String("personal"), "personal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.Text())
	}
}

func TestPayloadLookup(t *testing.T) {
	p := Payload{"customGoal": "ship", "custom-goal": nil}

	v, ok := p.Lookup("custom-goal", "customGoal")
	assert.True(t, ok)
	assert.Equal(t, "ship", v)

	_, ok = p.Lookup("missing")
	assert.False(t, ok)

	var empty Payload
	_, ok = empty.Lookup("x")
	assert.False(t, ok, "nil payload")
}

const floatDelta = 1e-9
