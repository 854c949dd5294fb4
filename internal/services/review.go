package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/models"
)

type ReviewService struct {
	db            *database.DB
	guideSessions *GuideSessionService
	profiles      *ProfileService
	notifications *NotificationService
}

func NewReviewService(db *database.DB, guideSessions *GuideSessionService, profiles *ProfileService, notifications *NotificationService) *ReviewService {
	return &ReviewService{db: db, guideSessions: guideSessions, profiles: profiles, notifications: notifications}
}

// Submit records the migrant's review of a guide they completed a session with. A second review
// of the same guide replaces the first. The guide's rating is recomputed in the same transaction.
func (s *ReviewService) Submit(ctx context.Context, migrantID, guideID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}

	ok, err := s.guideSessions.HasCompletedSession(ctx, guideID, migrantID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Forbidden("only migrants with a completed session can review this guide")
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var review models.Review
	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (guide_id, migrant_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guide_id, migrant_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment
		RETURNING id, guide_id, migrant_id, rating, comment, created_at
	`, guideID, migrantID, rating, strings.TrimSpace(comment)).Scan(
		&review.ID, &review.GuideID, &review.MigrantID, &review.Rating, &review.Comment, &review.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	if _, err := s.profiles.recalculateRating(ctx, tx, guideID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notifications.Notify(ctx, guideID, models.NotificationReviewReceived,
		fmt.Sprintf("You received a %d-star review", rating), &review.ID)
	return &review, nil
}

func (s *ReviewService) ListForGuide(ctx context.Context, guideID uuid.UUID) ([]models.Review, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, guide_id, migrant_id, rating, comment, created_at
		FROM reviews
		WHERE guide_id = $1
		ORDER BY created_at DESC
	`, guideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.GuideID, &r.MigrantID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
