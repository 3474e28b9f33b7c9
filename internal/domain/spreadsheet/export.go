package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"leadcompass/internal/domain/lead"
	"leadcompass/internal/domain/report"
)

const (
	LeadsSheet = "Leads"

	CurrencyGlyph = "₹"
)

var printer = message.NewPrinter(language.English)

type column struct {
	header string
	width  float64
	// value returns the typed cell value for xlsx; human switches budget to currency text
	value func(l lead.Lead, human bool) any
}

// columns is the fixed export order. Headers are the first alias MapRow looks for.
var columns = []column{
	{"Customer Name", 24, func(l lead.Lead, _ bool) any { return l.CustomerName }},
	{"Email", 28, func(l lead.Lead, _ bool) any { return l.Email }},
	{"Mobile", 16, func(l lead.Lead, _ bool) any { return l.MobileNumber }},
	{"Project", 20, func(l lead.Lead, _ bool) any { return l.ProjectName }},
	{"Budget", 16, func(l lead.Lead, human bool) any {
		if human {
			return FormatCurrency(l.Budget)
		}
		return l.Budget
	}},
	{"Area", 16, func(l lead.Lead, _ bool) any { return l.PreferredArea }},
	{"Team Leader", 18, func(l lead.Lead, _ bool) any { return l.TeamLeader }},
	{"Assigned To", 18, func(l lead.Lead, _ bool) any { return l.AssignedTo }},
	{"Last Contacted", 14, func(l lead.Lead, _ bool) any { return l.LastContactedDate }},
	{"Next Followup", 14, func(l lead.Lead, _ bool) any { return l.NextFollowupDate }},
	{"Status", 14, func(l lead.Lead, _ bool) any { return string(l.DealStatus) }},
	{"Interest", 10, func(l lead.Lead, _ bool) any { return string(l.InterestLevel) }},
	{"Property Type", 14, func(l lead.Lead, _ bool) any { return string(l.PropertyType) }},
	{"Site Visit", 10, func(l lead.Lead, _ bool) any { return yesNo(l.SiteVisitDone) }},
	{"Comments", 40, func(l lead.Lead, _ bool) any { return l.Comments }},
}

// Headers returns the export column headers in order
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

// FormatCurrency renders a budget for people: ₹ and thousands separators.
func FormatCurrency(v float64) string {
	if v == math.Trunc(v) {
		return CurrencyGlyph + printer.Sprintf("%.0f", v)
	}
	return CurrencyGlyph + printer.Sprintf("%.2f", v)
}

// Filename builds names like Leads_2026-10-15.xlsx
func Filename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format(lead.DateLayout), ext)
}

// ExportRows writes leads to a single-sheet workbook with a numeric budget column.
func ExportRows(leads []lead.Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LeadsSheet); err != nil {
		return nil, err
	}
	if err := writeLeadsSheet(f, LeadsSheet, leads); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportCSV writes the same columns as CSV. human renders budget as currency text.
func ExportCSV(leads []lead.Lead, human bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Headers()); err != nil {
		return nil, err
	}
	for _, l := range leads {
		record := make([]string, len(columns))
		for i, c := range columns {
			record[i] = csvValue(c.value(l, human))
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportReport writes the leads sheet followed by one summary sheet per breakdown.
func ExportReport(leads []lead.Lead, rep report.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LeadsSheet); err != nil {
		return nil, err
	}
	if err := writeLeadsSheet(f, LeadsSheet, leads); err != nil {
		return nil, err
	}

	summaries := []struct {
		name    string
		buckets []report.Bucket
	}{
		{"Status Summary", rep.Status},
		{"Interest Summary", rep.Interest},
		{"Area Summary", rep.Areas},
		{"Assignee Summary", rep.Assignees},
	}
	for _, s := range summaries {
		if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}
		if err := writeBuckets(f, s.name, s.buckets); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeLeadsSheet(f *excelize.File, sheet string, leads []lead.Lead) error {
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := styleHeader(f, sheet, len(columns)); err != nil {
		return err
	}

	for ri, l := range leads {
		row := make([]any, len(columns))
		for ci, c := range columns {
			row[ci] = c.value(l, false)
		}
		cell, err := excelize.CoordinatesToCellName(1, ri+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	for i, c := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return err
		}
	}
	return nil
}

func writeBuckets(f *excelize.File, sheet string, buckets []report.Bucket) error {
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Name", "Count"}); err != nil {
		return err
	}
	if err := styleHeader(f, sheet, 2); err != nil {
		return err
	}
	for i, b := range buckets {
		name := b.Name
		if name == "" {
			name = "(unassigned)"
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{name, b.Count}); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 24)
}

func styleHeader(f *excelize.File, sheet string, cols int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func csvValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
