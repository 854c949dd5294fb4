package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UpdateProfileRequest struct {
	DisplayName     *string          `json:"display_name,omitempty" validate:"omitempty,min=1,max=255"`
	Bio             *string          `json:"bio,omitempty" validate:"omitempty,max=5000"`
	CurrentLocation *string          `json:"current_location,omitempty" validate:"omitempty,max=255"`
	TargetLocation  *string          `json:"target_location,omitempty" validate:"omitempty,max=255"`
	VisaType        *string          `json:"visa_type,omitempty" validate:"omitempty,max=100"`
	Budget          *decimal.Decimal `json:"budget,omitempty"`
	Specialization  *string          `json:"specialization,omitempty" validate:"omitempty,max=255"`
	HourlyRate      *decimal.Decimal `json:"hourly_rate,omitempty"`
}

type ProfileResponse struct {
	ID              uuid.UUID       `json:"id"`
	UserID          string          `json:"user_id"`
	Role            string          `json:"role"`
	DisplayName     string          `json:"display_name"`
	Bio             string          `json:"bio"`
	CurrentLocation string          `json:"current_location,omitempty"`
	TargetLocation  string          `json:"target_location,omitempty"`
	VisaType        string          `json:"visa_type,omitempty"`
	Budget          decimal.Decimal `json:"budget"`
	Specialization  string          `json:"specialization,omitempty"`
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
	Rating          decimal.Decimal `json:"rating"`
	Verified        bool            `json:"verified"`
}
