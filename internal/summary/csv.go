package summary

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
)

// WriteCSV writes one block per operating system with signup weeks as columns.
// Blocks are separated by an empty line.
func WriteCSV(w io.Writer, rows []domain.CohortSummaryRow) error {
	byOS := make(map[string][]domain.CohortSummaryRow)
	var systems []string
	for _, r := range rows {
		if _, ok := byOS[r.OperatingSystem]; !ok {
			systems = append(systems, r.OperatingSystem)
		}
		byOS[r.OperatingSystem] = append(byOS[r.OperatingSystem], r)
	}
	slices.Sort(systems)

	for i, os := range systems {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return fmt.Errorf("failed to write block separator: %w", err)
			}
		}
		block := byOS[os]
		slices.SortFunc(block, func(a, b domain.CohortSummaryRow) int {
			return cmp.Compare(a.SignupWeek, b.SignupWeek)
		})
		if err := writeBlock(w, os, block); err != nil {
			return fmt.Errorf("failed to write %s block: %w", os, err)
		}
	}
	return nil
}

func writeBlock(w io.Writer, os string, block []domain.CohortSummaryRow) error {
	cw := csv.NewWriter(w)

	header := []string{os}
	rates := make([]domain.CohortRates, len(block))
	for i := range block {
		header = append(header, block[i].SignupWeek)
		rates[i] = block[i].Rates()
	}

	lines := [][]string{header}
	line := func(label string, value func(i int) string) {
		l := []string{label}
		for i := range block {
			l = append(l, value(i))
		}
		lines = append(lines, l)
	}

	line("Activation Rate", func(i int) string { return pct(rates[i].Activated) })
	line("Trial To Paid", func(i int) string { return pct(rates[i].Paid) })
	line("Total Users", func(i int) string { return strconv.FormatInt(block[i].TotalUsers, 10) })
	line("% Activated Users Who Paid", func(i int) string { return pct(rates[i].ActivatedWhoPaid) })
	for d := 0; d < domain.CompletionDays; d++ {
		line(fmt.Sprintf("%% Completed Day %d", d+1), func(i int) string { return pct(rates[i].CompletedDay[d]) })
	}

	if err := cw.WriteAll(lines); err != nil {
		return err
	}
	return cw.Error()
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
