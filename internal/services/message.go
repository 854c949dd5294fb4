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

const maxMessageLength = 5000

type MessageService struct {
	db            *database.DB
	notifications *NotificationService
}

func NewMessageService(db *database.DB, notifications *NotificationService) *MessageService {
	return &MessageService{db: db, notifications: notifications}
}

func (s *MessageService) Send(ctx context.Context, senderID, recipientID uuid.UUID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.Validation("message body is required")
	}
	if len(body) > maxMessageLength {
		return nil, apperrors.Validation("message body is too long")
	}
	if senderID == recipientID {
		return nil, apperrors.Validation("cannot message yourself")
	}

	var exists bool
	if err := s.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, recipientID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("recipient not found")
	}

	var msg models.Message
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, recipient_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, sender_id, recipient_id, body, created_at
	`, senderID, recipientID, body).Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Body, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	s.notifications.Notify(ctx, recipientID, models.NotificationMessageReceived, "You have a new message", &msg.ID)
	return &msg, nil
}

// Conversation returns the messages exchanged between two users, oldest first.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, sender_id, recipient_id, body, created_at
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at ASC
	`, userID, otherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
