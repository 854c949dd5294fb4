package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateGuideSessionRequest struct {
	GuideID     uuid.UUID       `json:"guide_id" validate:"required"`
	Purpose     string          `json:"purpose" validate:"required,max=2000"`
	Notes       string          `json:"notes" validate:"max=5000"`
	Budget      decimal.Decimal `json:"budget"`
	Timeline    string          `json:"timeline" validate:"max=255"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
}

type UpdateGuideSessionRequest struct {
	Purpose     *string          `json:"purpose,omitempty" validate:"omitempty,max=2000"`
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=5000"`
	Budget      *decimal.Decimal `json:"budget,omitempty"`
	Timeline    *string          `json:"timeline,omitempty" validate:"omitempty,max=255"`
	ScheduledAt *time.Time       `json:"scheduled_at,omitempty"`
}

type GuideSessionResponse struct {
	ID            uuid.UUID       `json:"id"`
	GuideID       uuid.UUID       `json:"guide_id"`
	MigrantID     uuid.UUID       `json:"migrant_id"`
	Purpose       string          `json:"purpose"`
	Notes         string          `json:"notes"`
	Budget        decimal.Decimal `json:"budget"`
	Timeline      string          `json:"timeline"`
	RequestStatus string          `json:"request_status"`
	Status        string          `json:"status"`
	ScheduledAt   *string         `json:"scheduled_at,omitempty"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// RespondResponse is returned by accept and decline. Session is nil after a decline.
type RespondResponse struct {
	RequestStatus string                `json:"request_status"`
	Session       *GuideSessionResponse `json:"session,omitempty"`
}
