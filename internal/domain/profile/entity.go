package profile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadcompass/internal/domain/access"
)

// Profile is a staff account. Termination is soft: the row and its name stay.
type Profile struct {
	ID   string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	Role access.Role `json:"role" gorm:"type:varchar(16);not null;index"`

	Name         string   `json:"name" gorm:"not null"`
	Email        string   `json:"email" gorm:"not null;uniqueIndex"`
	MobileNumber string   `json:"mobile_number,omitempty"`
	Salary       *float64 `json:"salary,omitempty"`

	IsTerminated    bool   `json:"is_terminated" gorm:"not null;default:false"`
	TerminationDate string `json:"termination_date,omitempty" gorm:"type:varchar(10)"`

	PasswordHash string `json:"-" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Session builds the access session for this profile
func (p *Profile) Session() *access.Session {
	return &access.Session{
		ProfileID: p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
	}
}

// redacted hides compensation from callers who cannot manage profiles.
func (p Profile) redacted() Profile {
	p.Salary = nil
	return p
}
