package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationRequestCreated   = "request_created"
	NotificationRequestAccepted  = "request_accepted"
	NotificationRequestDeclined  = "request_declined"
	NotificationRequestCompleted = "request_completed"
	NotificationReviewReceived   = "review_received"
	NotificationMessageReceived  = "message_received"
)

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	RelatedID *uuid.UUID `json:"related_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}
