package dto

import "github.com/google/uuid"

type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	RelatedID *uuid.UUID `json:"related_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt string     `json:"created_at"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
