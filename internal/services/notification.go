package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/models"
)

const notificationColumns = `id, user_id, type, message, related_id, read, created_at`

// Mailer copies notifications to the recipient's inbox.
type Mailer interface {
	IsConfigured() bool
	SendNotification(to, name, message string) error
}

type NotificationService struct {
	db     *database.DB
	mailer Mailer
}

func NewNotificationService(db *database.DB) *NotificationService {
	return &NotificationService{db: db}
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.RelatedID, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *NotificationService) Create(ctx context.Context, userID uuid.UUID, kind, message string, relatedID *uuid.UUID) (*models.Notification, error) {
	n, err := scanNotification(s.db.Pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, message, related_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+notificationColumns, userID, kind, message, relatedID))
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// SetMailer enables email copies of notifications.
func (s *NotificationService) SetMailer(m Mailer) {
	s.mailer = m
}

// Notify is Create for callers that must not fail because a notification could not be stored.
// The email copy is sent in the background.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind, message string, relatedID *uuid.UUID) {
	if _, err := s.Create(ctx, userID, kind, message, relatedID); err != nil {
		slog.WarnContext(ctx, "notification dropped", "user_id", userID, "type", kind, "error", err)
		return
	}
	if s.mailer == nil || !s.mailer.IsConfigured() {
		return
	}

	var email, name string
	if err := s.db.Pool.QueryRow(ctx, `SELECT email, name FROM users WHERE id = $1`, userID).Scan(&email, &name); err != nil {
		slog.WarnContext(ctx, "notification email skipped", "user_id", userID, "error", err)
		return
	}
	if email == "" {
		return
	}

	mailer := s.mailer
	go func() {
		if err := mailer.SendNotification(email, name, message); err != nil {
			slog.Warn("notification email failed", "user_id", userID, "type", kind, "error", err)
		}
	}()
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR read = FALSE)
		ORDER BY created_at DESC
		LIMIT 100
	`, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE user_id = $1 AND read = FALSE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	return count, err
}
