package dto

import "github.com/google/uuid"

type DocumentResponse struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Kind        string    `json:"kind"`
	CreatedAt   string    `json:"created_at"`
}
