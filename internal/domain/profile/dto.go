package profile

import "leadcompass/internal/domain/access"

// CreateRequest represents a new staff account
type CreateRequest struct {
	Name         string      `json:"name" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Password     string      `json:"password" validate:"required,min=8"`
	Role         access.Role `json:"role" validate:"required,oneof=CEO Employee"`
	MobileNumber string      `json:"mobile_number"`
	Salary       *float64    `json:"salary" validate:"omitempty,gte=0"`
}

// UpdateRequest is a partial profile update. Nil fields are left untouched.
type UpdateRequest struct {
	Name         *string      `json:"name" validate:"omitempty,min=1"`
	Email        *string      `json:"email" validate:"omitempty,email"`
	Role         *access.Role `json:"role" validate:"omitempty,oneof=CEO Employee"`
	MobileNumber *string      `json:"mobile_number"`
	Salary       *float64     `json:"salary" validate:"omitempty,gte=0"`
}
