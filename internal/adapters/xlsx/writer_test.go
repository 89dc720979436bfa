package xlsx

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
)

var testColumns = []string{"Userid", "Did activate", "Quit within 7 days", "Custom goal"}

func report(id, os string, activate float64, quit bool, goal string) domain.UserReport {
	goalValue := domain.Null()
	if goal != "" {
		goalValue = domain.String(goal)
	}
	quitHighlight := domain.HighlightGreen
	if quit {
		quitHighlight = domain.HighlightRed
	}
	activateHighlight := domain.HighlightRed
	if activate > 0 {
		activateHighlight = domain.HighlightGreen
	}
	return domain.UserReport{
		UserID:    id,
		PrimaryOS: []string{os},
		Metrics: []domain.MetricResult{
			{Column: "Userid", Value: domain.String(id)},
			{Column: "Did activate", Value: domain.Number(activate), Highlight: activateHighlight},
			{Column: "Quit within 7 days", Value: domain.Bool(quit), Highlight: quitHighlight},
			{Column: "Custom goal", Value: goalValue},
		},
	}
}

func writeAndOpen(t *testing.T, reports []domain.UserReport) *excelize.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewWriter().Write(path, testColumns, reports))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func fillColor(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	id, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)
	if id == 0 {
		return ""
	}
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	if len(style.Fill.Color) == 0 {
		return ""
	}
	return strings.ToUpper(style.Fill.Color[0])
}

func TestWrite_SheetsFollowOSOrder(t *testing.T) {
	f := writeAndOpen(t, []domain.UserReport{
		report("u-win", domain.OSWindows, 1, false, ""),
		report("u-odd", "Linux", 0, false, ""),
		report("u-mac", domain.OSMacOS, 2, false, "ship it"),
		{UserID: "u-none"},
	})

	assert.Equal(t, []string{domain.OSMacOS, domain.OSWindows, domain.OSUnknown}, f.GetSheetList())

	rows, err := f.GetRows(domain.OSUnknown)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "u-odd", rows[1][0])
	assert.Equal(t, "u-none", rows[2][0])
}

func TestWrite_PartialReportKeepsUserID(t *testing.T) {
	f := writeAndOpen(t, []domain.UserReport{
		{UserID: "u-bare", PrimaryOS: []string{domain.OSiOS}},
		{UserID: "u-partial", PrimaryOS: []string{domain.OSiOS}, Metrics: []domain.MetricResult{
			{Column: "Did activate", Value: domain.Number(1), Highlight: domain.HighlightGreen},
		}},
	})

	rows, err := f.GetRows(domain.OSiOS)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"u-bare"}, rows[1])
	assert.Equal(t, []string{"u-partial", "1"}, rows[2])
	assert.Empty(t, fillColor(t, f, domain.OSiOS, "A3"))
}

func TestWrite_CellsAndHighlights(t *testing.T) {
	f := writeAndOpen(t, []domain.UserReport{
		report("u-1", domain.OSMacOS, 3, true, "ship it"),
		report("u-2", domain.OSMacOS, 0, false, ""),
	})

	rows, err := f.GetRows(domain.OSMacOS)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, testColumns, rows[0])
	assert.Equal(t, []string{"u-1", "3", "TRUE", "ship it"}, rows[1])
	assert.Equal(t, []string{"u-2", "0", "FALSE"}, rows[2])

	assert.Empty(t, fillColor(t, f, domain.OSMacOS, "A2"), "user id is never filled")
	assert.True(t, strings.HasSuffix(fillColor(t, f, domain.OSMacOS, "B2"), "C6EFCE"))
	assert.True(t, strings.HasSuffix(fillColor(t, f, domain.OSMacOS, "C2"), "FFC7CE"))
	assert.True(t, strings.HasSuffix(fillColor(t, f, domain.OSMacOS, "B3"), "FFC7CE"))
	assert.True(t, strings.HasSuffix(fillColor(t, f, domain.OSMacOS, "C3"), "C6EFCE"))
	assert.True(t, strings.HasSuffix(fillColor(t, f, domain.OSMacOS, "A1"), "D3D3D3"))
}

func TestWrite_ColumnWidths(t *testing.T) {
	long := strings.Repeat("x", 80)
	f := writeAndOpen(t, []domain.UserReport{report("u", domain.OSiOS, 1, false, long)})

	w, err := f.GetColWidth(domain.OSiOS, "A")
	require.NoError(t, err)
	assert.Equal(t, float64(minColWidth), w)

	w, err = f.GetColWidth(domain.OSiOS, "C")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Quit within 7 days")+3), w)

	w, err = f.GetColWidth(domain.OSiOS, "D")
	require.NoError(t, err)
	assert.Equal(t, float64(maxColWidth), w)
}

func TestWrite_NoReports(t *testing.T) {
	f := writeAndOpen(t, nil)
	assert.Equal(t, []string{domain.OSUnknown}, f.GetSheetList())
	v, err := f.GetCellValue(domain.OSUnknown, "A1")
	require.NoError(t, err)
	assert.Equal(t, "No data available.", v)
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, 10.0, columnWidth(0))
	assert.Equal(t, 23.0, columnWidth(20))
	assert.Equal(t, 60.0, columnWidth(100))
}
