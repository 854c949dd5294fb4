package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile holds the role-specific public data of a user. UserID is the string form of User.ID.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`

	// migrant
	CurrentLocation string          `json:"current_location,omitempty"`
	TargetLocation  string          `json:"target_location,omitempty"`
	VisaType        string          `json:"visa_type,omitempty"`
	Budget          decimal.Decimal `json:"budget"`

	// guide
	Specialization string          `json:"specialization,omitempty"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	Rating         decimal.Decimal `json:"rating"`
	Verified       bool            `json:"verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate carries the owner-editable fields. Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName     *string
	Bio             *string
	CurrentLocation *string
	TargetLocation  *string
	VisaType        *string
	Budget          *decimal.Decimal
	Specialization  *string
	HourlyRate      *decimal.Decimal
}
