package spreadsheet

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"leadcompass/internal/pkg/apperr"
)

// CheckFilename rejects uploads that are not .xlsx workbooks.
func CheckFilename(name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return nil
	case ".xls":
		return &apperr.ParseError{Reason: "legacy .xls workbooks are not supported, save the file as .xlsx"}
	default:
		return &apperr.ParseError{Reason: "expected an .xlsx spreadsheet"}
	}
}

// ParseSpreadsheet reads the first sheet of a workbook. The first row is the header.
// Blank rows are dropped; a sheet with no data rows is a ParseError.
func ParseSpreadsheet(r io.Reader) ([]RawRow, error) {
	opts := excelize.Options{RawCellValue: true}
	f, err := excelize.OpenReader(r, opts)
	if err != nil {
		return nil, &apperr.ParseError{Reason: "unreadable spreadsheet: " + err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &apperr.ParseError{Reason: "workbook has no sheets"}
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, opts)
	if err != nil {
		return nil, &apperr.ParseError{Reason: "cannot read sheet " + strconv.Quote(sheet) + ": " + err.Error()}
	}
	if len(rows) < 2 {
		return nil, &apperr.ParseError{Reason: "no rows found"}
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	out := make([]RawRow, 0, len(rows)-1)
	for ri, row := range rows[1:] {
		raw := make(RawRow, len(headers))
		blank := true
		for ci, h := range headers {
			if h == "" {
				continue
			}
			value := ""
			if ci < len(row) {
				value = row[ci]
			}
			axis, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				continue
			}
			c := classify(f, sheet, axis, value)
			if !c.IsEmpty() {
				blank = false
			}
			raw[h] = c
		}
		if !blank {
			out = append(out, raw)
		}
	}
	if len(out) == 0 {
		return nil, &apperr.ParseError{Reason: "no rows found"}
	}
	return out, nil
}

// classify turns a raw cell value into a typed Cell using the stored cell type.
func classify(f *excelize.File, sheet, axis, value string) Cell {
	if strings.TrimSpace(value) == "" {
		return Cell{}
	}

	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		typ = excelize.CellTypeUnset
	}

	switch typ {
	case excelize.CellTypeBool:
		v := strings.TrimSpace(value)
		return BoolCell(v == "1" || strings.EqualFold(v, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return TextCell(value)
	}

	if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return NumberCell(n)
	}
	return TextCell(value)
}
