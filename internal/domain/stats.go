package domain

import "math"

// CompletionDays is how many post-signup days the cohort summary tracks.
const CompletionDays = 7

// UnknownWeek is the signup week of users without a parsable first-login date.
const UnknownWeek = "Unknown"

// CohortSummaryRow holds counts for users sharing an OS and signup week.
type CohortSummaryRow struct {
	OperatingSystem string
	SignupWeek      string
	TotalUsers      int64
	ActivatedUsers  int64
	PaidUsers       int64

	// DayCompleters[i] counts activated users active on day i+1.
	DayCompleters [CompletionDays]int64
}

// CohortRates holds the percentages derived from a CohortSummaryRow,
// rounded to two decimals.
type CohortRates struct {
	Activated        float64
	Paid             float64
	ActivatedWhoPaid float64
	CompletedDay     [CompletionDays]float64
}

// Rates derives percentages from the row counts.
// All divisions are zero-safe: returns 0 when the divisor is zero.
func (r *CohortSummaryRow) Rates() CohortRates {
	var c CohortRates

	if r.TotalUsers > 0 {
		c.Activated = percent(r.ActivatedUsers, r.TotalUsers)
		c.Paid = percent(r.PaidUsers, r.TotalUsers)
		for i, n := range r.DayCompleters {
			c.CompletedDay[i] = percent(n, r.TotalUsers)
		}
	}

	if r.ActivatedUsers > 0 {
		c.ActivatedWhoPaid = percent(r.PaidUsers, r.ActivatedUsers)
	}

	return c
}

func percent(part, whole int64) float64 {
	return Round(float64(part)/float64(whole)*100, 2)
}

// Round rounds x half away from zero to the given number of decimals.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
