package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"leadcompass/internal/domain/lead"
	"leadcompass/internal/domain/report"
	"leadcompass/internal/pkg/apperr"
)

func sampleLeads() []lead.Lead {
	return []lead.Lead{
		{
			CustomerName:      "Asha Patil",
			Email:             "asha@example.com",
			MobileNumber:      "9876543210",
			ProjectName:       "Riverfront",
			Budget:            7500000,
			PreferredArea:     "Pune",
			PropertyType:      lead.PropertyVilla,
			TeamLeader:        "Meera",
			AssignedTo:        "Ravi",
			DealStatus:        lead.StatusSiteVisit,
			InterestLevel:     lead.InterestGreen,
			SiteVisitDone:     true,
			LastContactedDate: "2026-10-01",
			NextFollowupDate:  "2026-10-20",
			Comments:          "wants east facing",
		},
		{
			CustomerName:  "Kabir Shah",
			Email:         "kabir@example.com",
			MobileNumber:  "9000000001",
			ProjectName:   "Skyline",
			Budget:        2500000.5,
			PreferredArea: "Mumbai",
			PropertyType:  lead.PropertyApartment,
			DealStatus:    lead.StatusNotContacted,
			InterestLevel: lead.InterestYellow,
		},
	}
}

// sheet builds an in-memory workbook from literal rows.
func sheet(t *testing.T, rows ...[]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestExportThenImport_RoundTrips(t *testing.T) {
	leads := sampleLeads()

	data, err := ExportRows(leads)
	require.NoError(t, err)

	rows, err := ParseSpreadsheet(bytes.NewReader(data))
	require.NoError(t, err)

	fields, skipped := MapRows(rows)
	assert.Equal(t, 0, skipped)
	require.Len(t, fields, len(leads))
	for i, l := range leads {
		assert.Equal(t, lead.FieldsOf(l), fields[i])
	}
}

func TestParseSpreadsheet_SkipsRowsWithoutIdentity(t *testing.T) {
	r := sheet(t,
		[]any{"Customer Name", "Email", "Budget"},
		[]any{"A", "a@x.io", 100},
		[]any{"B", "", 200},
	)
	rows, err := ParseSpreadsheet(r)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	fields, skipped := MapRows(rows)
	assert.Equal(t, 1, skipped)
	require.Len(t, fields, 1)
	assert.Equal(t, "A", fields[0].CustomerName)
	assert.Equal(t, 100.0, fields[0].Budget)
	assert.Equal(t, lead.StatusNotContacted, fields[0].DealStatus)
	assert.Equal(t, lead.InterestYellow, fields[0].InterestLevel)
	assert.Equal(t, lead.PropertyApartment, fields[0].PropertyType)
}

func TestParseSpreadsheet_NoRows(t *testing.T) {
	_, err := ParseSpreadsheet(sheet(t, []any{"Customer Name", "Email"}))
	require.Error(t, err)
	assert.True(t, apperr.IsParse(err))
	assert.Contains(t, err.Error(), "no rows found")

	_, err = ParseSpreadsheet(bytes.NewReader([]byte("not a workbook")))
	assert.True(t, apperr.IsParse(err))
}

func TestParseSpreadsheet_TypedCells(t *testing.T) {
	r := sheet(t,
		[]any{"Customer Name", "Email", "Site Visit", "Next Followup", "Mobile"},
		[]any{"A", "a@x.io", true, 45000, "0091"},
	)
	rows, err := ParseSpreadsheet(r)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, CellBool, rows[0]["Site Visit"].Kind)
	assert.Equal(t, CellNumber, rows[0]["Next Followup"].Kind)
	assert.Equal(t, CellText, rows[0]["Mobile"].Kind)

	f, ok := MapRow(rows[0])
	require.True(t, ok)
	assert.True(t, f.SiteVisitDone)
	assert.Equal(t, "2023-03-15", f.NextFollowupDate)
	assert.Equal(t, "0091", f.MobileNumber)
}

func TestSerialToDate(t *testing.T) {
	assert.Equal(t, "1970-01-01", SerialToDate(25569).Format(lead.DateLayout))
	assert.Equal(t, "1970-01-02", SerialToDate(25570).Format(lead.DateLayout))
	assert.Equal(t, "2023-03-15", SerialToDate(45000).Format(lead.DateLayout))
}

func TestMapRow_HeaderAliasPrecedence(t *testing.T) {
	r := RawRow{
		"Customer Name":  TextCell("Short"),
		"customer_name":  TextCell("Machine"),
		"Email":          TextCell("e@x.io"),
		"Mobile":         Cell{},
		"Mobile Number":  TextCell("123"),
		"Deal Status":    TextCell("closed"),
		"Interest Level": TextCell("Purple"),
		"property_type":  TextCell("PLOT"),
		"Budget":         TextCell("₹1,50,000"),
		"Site Visit":     TextCell("Yes"),
	}
	f, ok := MapRow(r)
	require.True(t, ok)
	assert.Equal(t, "Short", f.CustomerName)
	assert.Equal(t, "123", f.MobileNumber)
	assert.Equal(t, lead.StatusClosed, f.DealStatus)
	assert.Equal(t, lead.InterestYellow, f.InterestLevel)
	assert.Equal(t, lead.PropertyPlot, f.PropertyType)
	assert.Equal(t, 150000.0, f.Budget)
	assert.True(t, f.SiteVisitDone)
}

func TestMapRow_BadValuesFallBack(t *testing.T) {
	f, ok := MapRow(RawRow{
		"Customer Name":  TextCell("A"),
		"Email":          TextCell("a@x.io"),
		"Budget":         TextCell("lots"),
		"Last Contacted": TextCell("someday"),
		"Site Visit":     TextCell("maybe"),
	})
	require.True(t, ok)
	assert.Equal(t, 0.0, f.Budget)
	assert.Equal(t, "", f.LastContactedDate)
	assert.False(t, f.SiteVisitDone)

	f, ok = MapRow(RawRow{"Customer Name": TextCell("A"), "Email": TextCell("a@x.io"), "Budget": NumberCell(-5)})
	require.True(t, ok)
	assert.Equal(t, 0.0, f.Budget)
}

func TestCheckFilename(t *testing.T) {
	assert.NoError(t, CheckFilename("leads.xlsx"))
	assert.NoError(t, CheckFilename("LEADS.XLSX"))

	err := CheckFilename("old.xls")
	require.Error(t, err)
	assert.True(t, apperr.IsParse(err))
	assert.Contains(t, err.Error(), ".xlsx")

	assert.True(t, apperr.IsParse(CheckFilename("leads.csv")))
}

func TestExportCSV(t *testing.T) {
	data, err := ExportCSV(sampleLeads(), false)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Headers(), records[0])
	assert.Equal(t, "7500000", records[1][4])
	assert.Equal(t, "Yes", records[1][13])
	assert.Equal(t, "No", records[2][13])

	data, err = ExportCSV(sampleLeads(), true)
	require.NoError(t, err)
	records, err = csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "₹7,500,000", records[1][4])
	assert.Equal(t, "₹2,500,000.50", records[2][4])
}

func TestExportReport_Sheets(t *testing.T) {
	leads := sampleLeads()
	data, err := ExportReport(leads, report.Build(leads))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{LeadsSheet, "Status Summary", "Interest Summary", "Area Summary", "Assignee Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Area Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Count"}, rows[0])
	assert.Len(t, rows, 3)

	rows, err = f.GetRows("Assignee Summary")
	require.NoError(t, err)
	assert.Equal(t, "(unassigned)", rows[1][0])
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "Leads_2026-10-15.xlsx", Filename("Leads", "xlsx", now))
	assert.Equal(t, "Closed_Deals_2026-10-15.csv", Filename("Closed_Deals", "csv", now))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "₹0", FormatCurrency(0))
	assert.Equal(t, "₹1,234,567", FormatCurrency(1234567))
	assert.Equal(t, "₹1,234.50", FormatCurrency(1234.5))
	assert.Equal(t, "₹10,000,000,000,000,000,000", FormatCurrency(1e19))
}

func TestExportThenImport_KeepsStoredComments(t *testing.T) {
	leads := sampleLeads()[:1]
	leads[0].Comments = "call after 6pm,  prefers weekends"

	data, err := ExportRows(leads)
	require.NoError(t, err)
	rows, err := ParseSpreadsheet(bytes.NewReader(data))
	require.NoError(t, err)
	fields, _ := MapRows(rows)
	require.Len(t, fields, 1)
	assert.Equal(t, "call after 6pm,  prefers weekends", fields[0].Comments)
}
