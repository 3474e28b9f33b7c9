// Package activity records field-level lead changes and lets a CEO review, dismiss or revert them.
package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultWindow is how far back the recent-activity feed looks.
const DefaultWindow = 3 * time.Hour

// Activity is one changed field of one lead update. Only IsDismissed ever changes after insert.
// LeadID is a weak reference; the record outlives the lead.
type Activity struct {
	ID           string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	EmployeeName string    `json:"employee_name" gorm:"not null"`
	LeadID       string    `json:"lead_id" gorm:"type:varchar(36);index"`
	CustomerName string    `json:"customer_name"`
	FieldChanged string    `json:"field_changed" gorm:"not null"`
	OldValue     string    `json:"old_value" gorm:"type:text"`
	NewValue     string    `json:"new_value" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
	IsDismissed  bool      `json:"is_dismissed" gorm:"not null;default:false;index"`
}

func (Activity) TableName() string {
	return "lead_activities"
}

func (a *Activity) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
