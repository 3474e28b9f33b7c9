package spreadsheet

import (
	"math"
	"strconv"
	"strings"
	"time"

	"leadcompass/internal/domain/lead"
)

// spreadsheetEpoch is the serial number of 1970-01-01.
const spreadsheetEpoch = 25569

// CellKind tags the value held by a Cell
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellBool
)

// Cell is one typed spreadsheet value. Only the field matching Kind is meaningful.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Bool   bool
}

func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

func NumberCell(n float64) Cell { return Cell{Kind: CellNumber, Number: n} }

func BoolCell(b bool) Cell { return Cell{Kind: CellBool, Bool: b} }

func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// String renders the cell as text
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text)
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellBool:
		return strconv.FormatBool(c.Bool)
	default:
		return ""
	}
}

// RawRow is a data row keyed by its column header.
type RawRow map[string]Cell

// headerAliases lists, per field, the accepted headers in lookup order.
// The export header comes first, then any longer human form, then the field name.
var headerAliases = map[string][]string{
	"customer_name":       {"Customer Name", "customer_name"},
	"email":               {"Email", "email"},
	"mobile_number":       {"Mobile", "Mobile Number", "mobile_number"},
	"project_name":        {"Project", "Project Name", "project_name"},
	"budget":              {"Budget", "budget"},
	"preferred_area":      {"Area", "Preferred Area", "preferred_area"},
	"team_leader":         {"Team Leader", "team_leader"},
	"assigned_to":         {"Assigned To", "assigned_to"},
	"last_contacted_date": {"Last Contacted", "Last Contacted Date", "last_contacted_date"},
	"next_followup_date":  {"Next Followup", "Next Follow-up", "Next Followup Date", "next_followup_date"},
	"deal_status":         {"Status", "Deal Status", "deal_status"},
	"interest_level":      {"Interest", "Interest Level", "interest_level"},
	"property_type":       {"Property Type", "property_type"},
	"site_visit_done":     {"Site Visit", "Site Visit Done", "site_visit_done"},
	"comments":            {"Comments", "comments"},
}

// lookup returns the first non-empty cell among the field's aliases
func (r RawRow) lookup(field string) Cell {
	for _, h := range headerAliases[field] {
		if c, ok := r[h]; ok && !c.IsEmpty() {
			return c
		}
	}
	return Cell{}
}

// MapRow converts a parsed row into lead fields with defaults applied.
// It returns false when the row has no customer name or email; such rows are skipped, not errors.
func MapRow(r RawRow) (lead.Fields, bool) {
	f := lead.Fields{
		CustomerName:      r.lookup("customer_name").String(),
		Email:             r.lookup("email").String(),
		MobileNumber:      r.lookup("mobile_number").String(),
		ProjectName:       r.lookup("project_name").String(),
		Budget:            budgetOf(r.lookup("budget")),
		PreferredArea:     r.lookup("preferred_area").String(),
		TeamLeader:        r.lookup("team_leader").String(),
		AssignedTo:        r.lookup("assigned_to").String(),
		LastContactedDate: dateOf(r.lookup("last_contacted_date")),
		NextFollowupDate:  dateOf(r.lookup("next_followup_date")),
		DealStatus:        statusOf(r.lookup("deal_status")),
		InterestLevel:     interestOf(r.lookup("interest_level")),
		PropertyType:      propertyOf(r.lookup("property_type")),
		SiteVisitDone:     siteVisitOf(r.lookup("site_visit_done")),
		Comments:          r.lookup("comments").String(),
	}
	if !f.HasIdentity() {
		return lead.Fields{}, false
	}
	return f.WithDefaults(), true
}

// MapRows maps every row and counts the skipped ones
func MapRows(rows []RawRow) ([]lead.Fields, int) {
	out := make([]lead.Fields, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		f, ok := MapRow(r)
		if !ok {
			skipped++
			continue
		}
		out = append(out, f)
	}
	return out, skipped
}

func budgetOf(c Cell) float64 {
	var v float64
	switch c.Kind {
	case CellNumber:
		v = c.Number
	case CellText:
		cleaned := strings.NewReplacer("₹", "", ",", "", " ", "").Replace(c.Text)
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		v = n
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SerialToDate converts a spreadsheet day serial to a calendar date.
func SerialToDate(serial float64) time.Time {
	secs := math.Round((serial - spreadsheetEpoch) * 86400)
	return time.Unix(int64(secs), 0).UTC()
}

var textDateLayouts = []string{
	lead.DateLayout,
	"2006/01/02",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

func dateOf(c Cell) string {
	switch c.Kind {
	case CellNumber:
		return SerialToDate(c.Number).Format(lead.DateLayout)
	case CellText:
		s := strings.TrimSpace(c.Text)
		for _, layout := range textDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(lead.DateLayout)
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return SerialToDate(n).Format(lead.DateLayout)
		}
	}
	return ""
}

func statusOf(c Cell) lead.DealStatus {
	s := c.String()
	for _, v := range lead.DealStatuses {
		if strings.EqualFold(s, string(v)) {
			return v
		}
	}
	return lead.StatusNotContacted
}

func interestOf(c Cell) lead.InterestLevel {
	s := c.String()
	for _, v := range lead.InterestLevels {
		if strings.EqualFold(s, string(v)) {
			return v
		}
	}
	return lead.InterestYellow
}

func propertyOf(c Cell) lead.PropertyType {
	s := c.String()
	for _, v := range lead.PropertyTypes {
		if strings.EqualFold(s, string(v)) {
			return v
		}
	}
	return lead.PropertyApartment
}

func siteVisitOf(c Cell) bool {
	switch c.Kind {
	case CellBool:
		return c.Bool
	case CellText:
		s := strings.TrimSpace(c.Text)
		return s == "Yes" || s == "TRUE" || s == "true"
	}
	return false
}
