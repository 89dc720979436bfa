package summary

import (
	"cmp"
	"slices"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/metrics"
	"github.com/emiliopalmerini/onboardtrack/internal/util"
)

// PaidStatus is the subscription status that marks a paying user.
const PaidStatus = "personal"

type cohortKey struct {
	os   string
	week string
}

// SignupWeek returns the Monday (YYYY-MM-DD) of the week containing a report's
// first login date, or domain.UnknownWeek when the date is missing or malformed.
func SignupWeek(r domain.UserReport) string {
	m, ok := r.Metric(metrics.ColumnFirstLoginDate)
	if !ok || m.Value.Kind != domain.KindString {
		return domain.UnknownWeek
	}
	d, err := util.ParseDate(m.Value.Str)
	if err != nil {
		return domain.UnknownWeek
	}
	return util.FormatDate(util.WeekStart(d))
}

// Aggregate folds reports into one row per (OS, signup week), sorted by OS then week.
func Aggregate(reports []domain.UserReport) []domain.CohortSummaryRow {
	groups := make(map[cohortKey]*domain.CohortSummaryRow)

	for _, r := range reports {
		key := cohortKey{os: r.OS(), week: SignupWeek(r)}
		row, ok := groups[key]
		if !ok {
			row = &domain.CohortSummaryRow{OperatingSystem: key.os, SignupWeek: key.week}
			groups[key] = row
		}

		row.TotalUsers++
		if m, ok := r.Metric(metrics.ColumnSubscriptionStatus); ok && m.Value == domain.String(PaidStatus) {
			row.PaidUsers++
		}

		activated, ok := r.Metric(metrics.ColumnDidActivate)
		if !ok || !activated.Value.IsTrue() {
			continue
		}
		row.ActivatedUsers++
		for day := 1; day <= domain.CompletionDays; day++ {
			if activeOnDay(r, day) {
				row.DayCompleters[day-1]++
			}
		}
	}

	rows := make([]domain.CohortSummaryRow, 0, len(groups))
	for _, row := range groups {
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, func(a, b domain.CohortSummaryRow) int {
		return cmp.Or(
			cmp.Compare(a.OperatingSystem, b.OperatingSystem),
			cmp.Compare(a.SignupWeek, b.SignupWeek),
		)
	})
	return rows
}

// activeOnDay reports whether any habit category was used on post-signup day n.
func activeOnDay(r domain.UserReport, n int) bool {
	for _, col := range []string{
		metrics.MorningOnDayColumn(n),
		metrics.EveningOnDayColumn(n),
		metrics.BreaksOnDayColumn(n),
		metrics.FocusOnDayColumn(n),
	} {
		if m, ok := r.Metric(col); ok && m.Value.Positive() {
			return true
		}
	}
	return false
}
