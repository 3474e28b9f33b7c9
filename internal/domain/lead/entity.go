package lead

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateLayout is the calendar-date format used for follow-up and contact dates.
const DateLayout = "2006-01-02"

// DealStatus is the pipeline stage of a lead
type DealStatus string

const (
	StatusNotContacted DealStatus = "Not Contacted"
	StatusFollowUp     DealStatus = "Follow-up"
	StatusSiteVisit    DealStatus = "Site Visit"
	StatusClosed       DealStatus = "Closed"
	StatusDropped      DealStatus = "Dropped"
)

// DealStatuses lists every status in pipeline order.
var DealStatuses = []DealStatus{StatusNotContacted, StatusFollowUp, StatusSiteVisit, StatusClosed, StatusDropped}

func (s DealStatus) Valid() bool {
	for _, v := range DealStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// InterestLevel is a traffic-light rating
type InterestLevel string

const (
	InterestRed    InterestLevel = "Red"
	InterestYellow InterestLevel = "Yellow"
	InterestGreen  InterestLevel = "Green"
)

var InterestLevels = []InterestLevel{InterestRed, InterestYellow, InterestGreen}

func (i InterestLevel) Valid() bool {
	for _, v := range InterestLevels {
		if i == v {
			return true
		}
	}
	return false
}

// PropertyType is the kind of property the customer wants
type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyVilla      PropertyType = "villa"
	PropertyPlot       PropertyType = "plot"
	PropertyCommercial PropertyType = "commercial"
)

var PropertyTypes = []PropertyType{PropertyApartment, PropertyHouse, PropertyVilla, PropertyPlot, PropertyCommercial}

func (p PropertyType) Valid() bool {
	for _, v := range PropertyTypes {
		if p == v {
			return true
		}
	}
	return false
}

// Lead is a prospective customer tracked through the sales pipeline.
// TeamLeader and AssignedTo hold staff names, not profile ids.
type Lead struct {
	ID string `json:"id" gorm:"type:varchar(36);primaryKey"`

	// Contact
	CustomerName string `json:"customer_name" gorm:"not null"`
	Email        string `json:"email" gorm:"not null;index"`
	MobileNumber string `json:"mobile_number"`

	// Deal
	ProjectName   string       `json:"project_name"`
	Budget        float64      `json:"budget" gorm:"not null;default:0"`
	PreferredArea string       `json:"preferred_area" gorm:"index"`
	PropertyType  PropertyType `json:"property_type" gorm:"type:varchar(32);not null"`

	// Assignment
	TeamLeader string `json:"team_leader"`
	AssignedTo string `json:"assigned_to" gorm:"index"`

	// Lifecycle
	DealStatus    DealStatus    `json:"deal_status" gorm:"type:varchar(32);not null;index"`
	InterestLevel InterestLevel `json:"interest_level" gorm:"type:varchar(16);not null"`
	SiteVisitDone bool          `json:"site_visit_done" gorm:"not null;default:false"`

	// Follow-up, YYYY-MM-DD or empty
	LastContactedDate string `json:"last_contacted_date" gorm:"type:varchar(10)"`
	NextFollowupDate  string `json:"next_followup_date" gorm:"type:varchar(10);index"`

	Comments string `json:"comments" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// IsClosed returns true if the deal is won
func (l *Lead) IsClosed() bool {
	return l.DealStatus == StatusClosed
}

// IsActive returns true while the lead is still in the pipeline
func (l *Lead) IsActive() bool {
	return l.DealStatus != StatusClosed && l.DealStatus != StatusDropped
}

// IsConverted reports a closed deal with green interest.
func (l *Lead) IsConverted() bool {
	return l.DealStatus == StatusClosed && l.InterestLevel == InterestGreen
}
