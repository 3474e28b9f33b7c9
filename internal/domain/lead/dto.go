package lead

import (
	"strconv"
	"strings"
)

// Fields is the input for creating a lead, by hand or from an import row.
type Fields struct {
	CustomerName      string        `json:"customer_name" validate:"required"`
	Email             string        `json:"email" validate:"required,email"`
	MobileNumber      string        `json:"mobile_number" validate:"required"`
	ProjectName       string        `json:"project_name" validate:"required"`
	Budget            float64       `json:"budget" validate:"gte=0"`
	PreferredArea     string        `json:"preferred_area" validate:"required"`
	PropertyType      PropertyType  `json:"property_type"`
	TeamLeader        string        `json:"team_leader"`
	AssignedTo        string        `json:"assigned_to"`
	DealStatus        DealStatus    `json:"deal_status"`
	InterestLevel     InterestLevel `json:"interest_level"`
	SiteVisitDone     bool          `json:"site_visit_done"`
	LastContactedDate string        `json:"last_contacted_date" validate:"omitempty,datetime=2006-01-02"`
	NextFollowupDate  string        `json:"next_followup_date" validate:"omitempty,datetime=2006-01-02"`
	Comments          string        `json:"comments"`
}

// WithDefaults fills the enum fields a new lead must always carry.
func (f Fields) WithDefaults() Fields {
	if f.DealStatus == "" {
		f.DealStatus = StatusNotContacted
	}
	if f.InterestLevel == "" {
		f.InterestLevel = InterestYellow
	}
	if f.PropertyType == "" {
		f.PropertyType = PropertyApartment
	}
	return f
}

// HasIdentity reports whether the row names a customer and an email.
func (f Fields) HasIdentity() bool {
	return strings.TrimSpace(f.CustomerName) != "" && strings.TrimSpace(f.Email) != ""
}

func (f Fields) toLead() Lead {
	return Lead{
		CustomerName:      strings.TrimSpace(f.CustomerName),
		Email:             strings.TrimSpace(f.Email),
		MobileNumber:      strings.TrimSpace(f.MobileNumber),
		ProjectName:       strings.TrimSpace(f.ProjectName),
		Budget:            f.Budget,
		PreferredArea:     strings.TrimSpace(f.PreferredArea),
		PropertyType:      f.PropertyType,
		TeamLeader:        strings.TrimSpace(f.TeamLeader),
		AssignedTo:        strings.TrimSpace(f.AssignedTo),
		DealStatus:        f.DealStatus,
		InterestLevel:     f.InterestLevel,
		SiteVisitDone:     f.SiteVisitDone,
		LastContactedDate: f.LastContactedDate,
		NextFollowupDate:  f.NextFollowupDate,
		Comments:          strings.TrimSpace(f.Comments),
	}
}

// FieldsOf returns the editable fields of l.
func FieldsOf(l Lead) Fields {
	return Fields{
		CustomerName:      l.CustomerName,
		Email:             l.Email,
		MobileNumber:      l.MobileNumber,
		ProjectName:       l.ProjectName,
		Budget:            l.Budget,
		PreferredArea:     l.PreferredArea,
		PropertyType:      l.PropertyType,
		TeamLeader:        l.TeamLeader,
		AssignedTo:        l.AssignedTo,
		DealStatus:        l.DealStatus,
		InterestLevel:     l.InterestLevel,
		SiteVisitDone:     l.SiteVisitDone,
		LastContactedDate: l.LastContactedDate,
		NextFollowupDate:  l.NextFollowupDate,
		Comments:          l.Comments,
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	CustomerName      *string        `json:"customer_name,omitempty"`
	Email             *string        `json:"email,omitempty"`
	MobileNumber      *string        `json:"mobile_number,omitempty"`
	ProjectName       *string        `json:"project_name,omitempty"`
	Budget            *float64       `json:"budget,omitempty"`
	PreferredArea     *string        `json:"preferred_area,omitempty"`
	PropertyType      *PropertyType  `json:"property_type,omitempty"`
	TeamLeader        *string        `json:"team_leader,omitempty"`
	AssignedTo        *string        `json:"assigned_to,omitempty"`
	DealStatus        *DealStatus    `json:"deal_status,omitempty"`
	InterestLevel     *InterestLevel `json:"interest_level,omitempty"`
	SiteVisitDone     *bool          `json:"site_visit_done,omitempty"`
	LastContactedDate *string        `json:"last_contacted_date,omitempty"`
	NextFollowupDate  *string        `json:"next_followup_date,omitempty"`
	Comments          *string        `json:"comments,omitempty"`
}

// ApplyTo merges p into a copy of l.
func (p Patch) ApplyTo(l Lead) Lead {
	if p.CustomerName != nil {
		l.CustomerName = strings.TrimSpace(*p.CustomerName)
	}
	if p.Email != nil {
		l.Email = strings.TrimSpace(*p.Email)
	}
	if p.MobileNumber != nil {
		l.MobileNumber = strings.TrimSpace(*p.MobileNumber)
	}
	if p.ProjectName != nil {
		l.ProjectName = strings.TrimSpace(*p.ProjectName)
	}
	if p.Budget != nil {
		l.Budget = *p.Budget
	}
	if p.PreferredArea != nil {
		l.PreferredArea = strings.TrimSpace(*p.PreferredArea)
	}
	if p.PropertyType != nil {
		l.PropertyType = *p.PropertyType
	}
	if p.TeamLeader != nil {
		l.TeamLeader = strings.TrimSpace(*p.TeamLeader)
	}
	if p.AssignedTo != nil {
		l.AssignedTo = strings.TrimSpace(*p.AssignedTo)
	}
	if p.DealStatus != nil {
		l.DealStatus = *p.DealStatus
	}
	if p.InterestLevel != nil {
		l.InterestLevel = *p.InterestLevel
	}
	if p.SiteVisitDone != nil {
		l.SiteVisitDone = *p.SiteVisitDone
	}
	if p.LastContactedDate != nil {
		l.LastContactedDate = *p.LastContactedDate
	}
	if p.NextFollowupDate != nil {
		l.NextFollowupDate = *p.NextFollowupDate
	}
	if p.Comments != nil {
		l.Comments = strings.TrimSpace(*p.Comments)
	}
	return l
}

// FieldChange is one tracked field whose value changed in an update.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

type trackedField struct {
	name string
	get  func(*Lead) string
	set  func(*Patch, string) error
}

var trackedFields = []trackedField{
	{"customer_name", func(l *Lead) string { return l.CustomerName }, func(p *Patch, v string) error { p.CustomerName = &v; return nil }},
	{"email", func(l *Lead) string { return l.Email }, func(p *Patch, v string) error { p.Email = &v; return nil }},
	{"mobile_number", func(l *Lead) string { return l.MobileNumber }, func(p *Patch, v string) error { p.MobileNumber = &v; return nil }},
	{"project_name", func(l *Lead) string { return l.ProjectName }, func(p *Patch, v string) error { p.ProjectName = &v; return nil }},
	{"budget", func(l *Lead) string { return FormatBudget(l.Budget) }, func(p *Patch, v string) error {
		b, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return ErrInvalidRevert
		}
		p.Budget = &b
		return nil
	}},
	{"preferred_area", func(l *Lead) string { return l.PreferredArea }, func(p *Patch, v string) error { p.PreferredArea = &v; return nil }},
	{"property_type", func(l *Lead) string { return string(l.PropertyType) }, func(p *Patch, v string) error {
		t := PropertyType(v)
		p.PropertyType = &t
		return nil
	}},
	{"team_leader", func(l *Lead) string { return l.TeamLeader }, func(p *Patch, v string) error { p.TeamLeader = &v; return nil }},
	{"assigned_to", func(l *Lead) string { return l.AssignedTo }, func(p *Patch, v string) error { p.AssignedTo = &v; return nil }},
	{"deal_status", func(l *Lead) string { return string(l.DealStatus) }, func(p *Patch, v string) error {
		s := DealStatus(v)
		p.DealStatus = &s
		return nil
	}},
	{"interest_level", func(l *Lead) string { return string(l.InterestLevel) }, func(p *Patch, v string) error {
		i := InterestLevel(v)
		p.InterestLevel = &i
		return nil
	}},
	{"site_visit_done", func(l *Lead) string { return strconv.FormatBool(l.SiteVisitDone) }, func(p *Patch, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return ErrInvalidRevert
		}
		p.SiteVisitDone = &b
		return nil
	}},
	{"last_contacted_date", func(l *Lead) string { return l.LastContactedDate }, func(p *Patch, v string) error { p.LastContactedDate = &v; return nil }},
	{"next_followup_date", func(l *Lead) string { return l.NextFollowupDate }, func(p *Patch, v string) error { p.NextFollowupDate = &v; return nil }},
	{"comments", func(l *Lead) string { return l.Comments }, func(p *Patch, v string) error { p.Comments = &v; return nil }},
}

// Diff lists the tracked fields that differ between before and after, in a fixed order.
func Diff(before, after Lead) []FieldChange {
	var changes []FieldChange
	for _, f := range trackedFields {
		oldValue, newValue := f.get(&before), f.get(&after)
		if oldValue != newValue {
			changes = append(changes, FieldChange{Field: f.name, OldValue: oldValue, NewValue: newValue})
		}
	}
	return changes
}

// PatchForField builds a patch that sets one tracked field from its recorded string value.
func PatchForField(field, value string) (Patch, error) {
	var p Patch
	for _, f := range trackedFields {
		if f.name == field {
			return p, f.set(&p, value)
		}
	}
	return p, ErrUnknownField
}

// FormatBudget renders a budget without trailing zeros.
func FormatBudget(b float64) string {
	return strconv.FormatFloat(b, 'f', -1, 64)
}

// ListResponse is a single page of the filtered working set.
type ListResponse struct {
	Leads      []Lead   `json:"leads"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
	Total      int      `json:"total"`
	Areas      []string `json:"areas"`
}

// BulkResult reports how many rows a bulk import inserted and how many it skipped.
type BulkResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// DeleteAllRequest carries the step-up password for a full wipe.
type DeleteAllRequest struct {
	Password string `json:"password" validate:"required"`
}
