package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/util"
)

var (
	// ErrUnmappedMode is returned when a spec declares a mode with no accessor.
	ErrUnmappedMode = errors.New("metric mode has no accessor")
	// ErrInvalidSpec is returned for specs missing the parameters their mode needs.
	ErrInvalidSpec = errors.New("invalid metric spec")
)

var accessors = map[Mode]accessor{
	ModeUserID:             userID,
	ModeUpdatedDate:        updatedDate,
	ModeFirstLoginDate:     firstLoginDate,
	ModeSubscriptionStatus: subscriptionStatus,
	ModeFirstMatch:         firstMatch,
	ModeMultiTypeExists:    multiTypeExists,
	ModeMobileSignup:       mobileSignup,
	ModeMobileSignupDate:   mobileSignupDate,
	ModeDistinctDayCount:   distinctDayCount,
	ModeDistinctDayPercent: distinctDayPercent,
	ModeEventCount:         eventCount,
	ModePropertyExtract:    propertyExtract,
	ModeNumericSum:         numericSum,
	ModeAvgHoursPerWeek:    avgHoursPerWeek,
	ModeAvgRating:          avgRating,
	ModeQuitWithinDays:     quitWithinDays,
	ModeActivityCount:      activityCount,
	ModeFocusSessionCount:  focusSessionCount,
}

// modes that read track events and so need a non-empty Events list.
var eventModes = map[Mode]bool{
	ModeFirstLoginDate:     true,
	ModeFirstMatch:         true,
	ModeMultiTypeExists:    true,
	ModeMobileSignup:       true,
	ModeMobileSignupDate:   true,
	ModeDistinctDayCount:   true,
	ModeDistinctDayPercent: true,
	ModeEventCount:         true,
	ModePropertyExtract:    true,
	ModeNumericSum:         true,
	ModeAvgHoursPerWeek:    true,
	ModeAvgRating:          true,
	ModeQuitWithinDays:     true,
}

// neverHighlighted are identity columns rendered without a fill.
var neverHighlighted = map[string]bool{
	ColumnUserID:          true,
	ColumnFirstLoginDate:  true,
	ColumnLastUpdatedDate: true,
}

// Evaluator turns one Spec and one user's bundle into a MetricResult.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator validates every spec in table and returns an evaluator for it.
func NewEvaluator(table []Spec, now func() time.Time) (*Evaluator, error) {
	if err := Validate(table); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Evaluator{now: now}, nil
}

// Validate checks that every spec maps to an accessor and carries the
// parameters its mode reads. Column names must be unique.
func Validate(table []Spec) error {
	columns := make(map[string]bool, len(table))
	for i, s := range table {
		if _, ok := accessors[s.Mode]; !ok {
			return fmt.Errorf("spec %d (%q) mode %q: %w", i, s.Column, s.Mode, ErrUnmappedMode)
		}
		if s.Column == "" {
			return fmt.Errorf("spec %d has no column: %w", i, ErrInvalidSpec)
		}
		if columns[s.Column] {
			return fmt.Errorf("duplicate column %q: %w", s.Column, ErrInvalidSpec)
		}
		columns[s.Column] = true

		switch {
		case eventModes[s.Mode] && len(s.Events) == 0:
			return fmt.Errorf("column %q needs event types: %w", s.Column, ErrInvalidSpec)
		case s.Mode == ModePropertyExtract && len(s.Properties) == 0:
			return fmt.Errorf("column %q needs payload properties: %w", s.Column, ErrInvalidSpec)
		case (s.Mode == ModeNumericSum || s.Mode == ModeAvgHoursPerWeek || s.Mode == ModeAvgRating) && s.Field == "":
			return fmt.Errorf("column %q needs a payload field: %w", s.Column, ErrInvalidSpec)
		case s.Mode == ModeActivityCount && s.ActivityType == "":
			return fmt.Errorf("column %q needs an activity type: %w", s.Column, ErrInvalidSpec)
		case s.Window != nil && (s.Window.StartHour < 0 || s.Window.EndHour < s.Window.StartHour):
			return fmt.Errorf("column %q window %d-%d: %w", s.Column, s.Window.StartHour, s.Window.EndHour, ErrInvalidSpec)
		}
	}
	return nil
}

// Evaluate computes one metric. It never fails: missing data yields the
// mode's empty value and no provenance.
func (e *Evaluator) Evaluate(spec Spec, bundle *domain.UserBundle, activeDays int) domain.MetricResult {
	res := domain.MetricResult{Column: spec.Column}

	fn, ok := accessors[spec.Mode]
	if !ok || bundle == nil {
		res.Value = domain.Null()
		res.Highlight = highlight(spec.Column, res.Value)
		return res
	}

	out := fn(spec, input{bundle: bundle, activeDays: activeDays})
	res.Value = out.value
	if !out.at.IsZero() {
		at := out.at
		res.ProvenanceAt = &at
		res.ProvenanceOffsetDays = util.AgeInDays(at, e.now())
	}
	res.Highlight = highlight(spec.Column, res.Value)
	return res
}

func highlight(column string, v domain.Value) domain.Highlight {
	if neverHighlighted[column] {
		return domain.HighlightNone
	}

	switch column {
	case ColumnQuitWithin7Days:
		if v.IsTrue() {
			return domain.HighlightRed
		}
	case ColumnUninstalledApp:
		if v.Positive() {
			return domain.HighlightRed
		}
	}

	switch v.Kind {
	case domain.KindBool:
		if v.Bool {
			return domain.HighlightGreen
		}
	case domain.KindNumber:
		if v.Num > 0 {
			return domain.HighlightGreen
		}
	case domain.KindString:
		if v.Str != "" && v.Str != SubscriptionUnknown {
			return domain.HighlightGreen
		}
	}
	return domain.HighlightRed
}
