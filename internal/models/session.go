package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server side of the session cookie. UserID is nil until a login binds it.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// TabBinding pins one browser tab of a session to a user. A nil UserID marks a tab that
// logged out while the session stays alive for other tabs.
type TabBinding struct {
	SessionID uuid.UUID  `json:"session_id"`
	TabID     string     `json:"tab_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
}
