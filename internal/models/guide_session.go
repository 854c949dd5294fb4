package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	// RequestStatusDeclined is never stored: declined requests are deleted.
	RequestStatusDeclined RequestStatus = "declined"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
)

// GuideSession is a migrant's consultation request to a guide.
type GuideSession struct {
	ID            uuid.UUID       `json:"id"`
	GuideID       uuid.UUID       `json:"guide_id"`
	MigrantID     uuid.UUID       `json:"migrant_id"`
	Purpose       string          `json:"purpose"`
	Notes         string          `json:"notes"`
	Budget        decimal.Decimal `json:"budget"`
	Timeline      string          `json:"timeline"`
	RequestStatus RequestStatus   `json:"request_status"`
	Status        SessionStatus   `json:"status"`
	ScheduledAt   *time.Time      `json:"scheduled_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type GuideSessionFilter struct {
	GuideID       *uuid.UUID
	MigrantID     *uuid.UUID
	RequestStatus RequestStatus
}

// GuideSessionRequest is what a migrant submits to open a consultation request.
type GuideSessionRequest struct {
	GuideID     uuid.UUID
	Purpose     string
	Notes       string
	Budget      decimal.Decimal
	Timeline    string
	ScheduledAt *time.Time
}

// GuideSessionUpdate carries the fields a migrant may edit while the request is pending.
type GuideSessionUpdate struct {
	Purpose     *string
	Notes       *string
	Budget      *decimal.Decimal
	Timeline    *string
	ScheduledAt *time.Time
}

func (g *GuideSession) HasParticipant(userID uuid.UUID) bool {
	return g.GuideID == userID || g.MigrantID == userID
}
