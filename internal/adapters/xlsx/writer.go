// Package xlsx renders onboarding reports as a workbook with one sheet per
// operating system.
package xlsx

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
	"github.com/emiliopalmerini/onboardtrack/internal/metrics"
)

const (
	minColWidth = 10
	maxColWidth = 60
	// widthSampleRows is how many data rows column sizing looks at.
	widthSampleRows = 10
)

// Writer writes report workbooks.
type Writer struct{}

func NewWriter() *Writer { return &Writer{} }

type styles struct {
	header, green, red int
}

// Write saves reports to path. Sheets follow domain.SheetOrder and empty
// sheets are skipped; a report whose OS is not listed lands on the Unknown sheet.
func (w *Writer) Write(path string, columns []string, reports []domain.UserReport) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	groups := groupByOS(reports)
	first := true
	for _, os := range domain.SheetOrder {
		rows := groups[os]
		if len(rows) == 0 {
			logging.Debug().Str("sheet", os).Msg("skipping empty sheet")
			continue
		}
		if err := addSheet(f, os, first); err != nil {
			return err
		}
		first = false
		if err := writeSheet(f, st, os, columns, rows); err != nil {
			return fmt.Errorf("writing sheet %s: %w", os, err)
		}
		logging.Info().Str("sheet", os).Int("users", len(rows)).Msg("wrote sheet")
	}

	if first {
		if err := addSheet(f, domain.OSUnknown, true); err != nil {
			return err
		}
		if err := f.SetCellValue(domain.OSUnknown, "A1", "No data available."); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// addSheet renames the default sheet for the first OS and appends the rest.
func addSheet(f *excelize.File, name string, first bool) error {
	if first {
		return f.SetSheetName(f.GetSheetName(0), name)
	}
	_, err := f.NewSheet(name)
	return err
}

func groupByOS(reports []domain.UserReport) map[string][]domain.UserReport {
	groups := make(map[string][]domain.UserReport)
	for _, r := range reports {
		os := r.OS()
		if !slices.Contains(domain.SheetOrder, os) {
			os = domain.OSUnknown
		}
		groups[os] = append(groups[os], r)
	}
	return groups
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		st  styles
		err error
	)
	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D3D3D3"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thin,
	})
	if err != nil {
		return st, err
	}
	st.green, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "006100"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C6EFCE"}},
	})
	if err != nil {
		return st, err
	}
	st.red, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "9C0006"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
	})
	return st, err
}

func writeSheet(f *excelize.File, st styles, sheet string, columns []string, reports []domain.UserReport) error {
	header := make([]any, len(columns))
	widths := make([]int, len(columns))
	for i, c := range columns {
		header[i] = c
		widths[i] = utf8.RuneCountInString(c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return err
	}

	for i, r := range reports {
		rowNum := i + 2
		row := make([]any, len(columns))
		fills := make(map[int]int)
		for j, col := range columns {
			m, ok := r.Metric(col)
			if !ok {
				// a partial report still names its user
				if col != metrics.ColumnUserID || r.UserID == "" {
					continue
				}
				m = domain.MetricResult{Column: col, Value: domain.String(r.UserID)}
			}
			row[j] = cellValue(m.Value)
			if i < widthSampleRows {
				widths[j] = max(widths[j], utf8.RuneCountInString(m.Value.Text()))
			}
			if style, ok := st.fill(m.Highlight); ok {
				fills[j] = style
			}
		}
		start, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return err
		}
		for j, style := range fills {
			cell, err := excelize.CoordinatesToCellName(j+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, columnWidth(w)); err != nil {
			return err
		}
	}
	return nil
}

func (st styles) fill(h domain.Highlight) (int, bool) {
	switch h {
	case domain.HighlightGreen:
		return st.green, true
	case domain.HighlightRed:
		return st.red, true
	}
	return 0, false
}

// cellValue keeps numbers numeric; booleans are written as TRUE/FALSE text.
func cellValue(v domain.Value) any {
	switch v.Kind {
	case domain.KindNumber:
		return v.Num
	case domain.KindNull:
		return nil
	default:
		return v.Text()
	}
}

func columnWidth(textLen int) float64 {
	return float64(min(maxColWidth, max(minColWidth, textLen+3)))
}
