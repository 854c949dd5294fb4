package dto

import "github.com/google/uuid"

type CreateReviewRequest struct {
	GuideID uuid.UUID `json:"guide_id" validate:"required"`
	Rating  int       `json:"rating" validate:"required,min=1,max=5"`
	Comment string    `json:"comment" validate:"max=2000"`
}

type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	GuideID   uuid.UUID `json:"guide_id"`
	MigrantID uuid.UUID `json:"migrant_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt string    `json:"created_at"`
}
