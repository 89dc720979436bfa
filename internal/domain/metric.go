package domain

import (
	"strconv"
	"time"
)

// ValueKind tags the dynamic type carried by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
)

// Value is a metric cell: null, boolean, number or string.
type Value struct {
	Kind ValueKind
	Bool bool
	Num  float64
	Str  string
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

func Int(n int) Value { return Value{Kind: KindNumber, Num: float64(n)} }

func String(s string) Value { return Value{Kind: KindString, Str: s} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsTrue reports whether v is the boolean true.
func (v Value) IsTrue() bool { return v.Kind == KindBool && v.Bool }

// Positive reports whether v is a number greater than zero.
func (v Value) Positive() bool { return v.Kind == KindNumber && v.Num > 0 }

// Text renders the value the way spreadsheet and CSV cells show it.
func (v Value) Text() string {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// Highlight is the fill classification of a rendered metric cell.
type Highlight string

const (
	HighlightNone  Highlight = ""
	HighlightGreen Highlight = "green"
	HighlightRed   Highlight = "red"
)

// MetricResult is the evaluated value of one metric column for one user.
type MetricResult struct {
	Column string
	Value  Value
	// ProvenanceAt is the time of the event that decided the value; nil when none did.
	ProvenanceAt         *time.Time
	ProvenanceOffsetDays int
	Highlight            Highlight
}

// UserReport is one row of the onboarding report.
type UserReport struct {
	UserID    string
	PrimaryOS []string
	Metrics   []MetricResult
}

// OS returns the first primary OS, or OSUnknown.
func (r UserReport) OS() string {
	if len(r.PrimaryOS) == 0 || r.PrimaryOS[0] == "" {
		return OSUnknown
	}
	return r.PrimaryOS[0]
}

// Metric finds a result by column name.
func (r UserReport) Metric(column string) (MetricResult, bool) {
	for _, m := range r.Metrics {
		if m.Column == column {
			return m, true
		}
	}
	return MetricResult{}, false
}
