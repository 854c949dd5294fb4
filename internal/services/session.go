package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/models"
)

// SessionStore persists sessions and their per-tab user bindings. Bindings live exactly as long
// as their session: every Touch extends both.
type SessionStore interface {
	Create(ctx context.Context) (*models.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Touch(ctx context.Context, id uuid.UUID) error
	SetUser(ctx context.Context, id, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	BindTab(ctx context.Context, sessionID uuid.UUID, tabID string, userID *uuid.UUID) error
	GetTab(ctx context.Context, sessionID uuid.UUID, tabID string) (*models.TabBinding, error)
	DeleteTab(ctx context.Context, sessionID uuid.UUID, tabID string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type PostgresSessionStore struct {
	db  *database.DB
	ttl time.Duration
	now func() time.Time
}

func NewPostgresSessionStore(db *database.DB, ttl time.Duration) *PostgresSessionStore {
	return &PostgresSessionStore{db: db, ttl: ttl, now: time.Now}
}

func (s *PostgresSessionStore) expiry() time.Time {
	return s.now().Add(s.ttl)
}

func (s *PostgresSessionStore) Create(ctx context.Context) (*models.Session, error) {
	var session models.Session
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO sessions (expires_at)
		VALUES ($1)
		RETURNING id, user_id, created_at, expires_at
	`, s.expiry()).Scan(&session.ID, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &session, nil
}

func (s *PostgresSessionStore) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, expires_at
		FROM sessions
		WHERE id = $1 AND expires_at > NOW()
	`, id).Scan(&session.ID, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if isNoRows(err) {
		return nil, apperrors.NotAuthenticated("session expired")
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *PostgresSessionStore) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		WITH touched AS (
			UPDATE sessions SET expires_at = $1 WHERE id = $2 RETURNING id
		)
		UPDATE session_tabs SET expires_at = $1
		WHERE session_id IN (SELECT id FROM touched)
	`, s.expiry(), id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) SetUser(ctx context.Context, id, userID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE sessions SET user_id = $1, expires_at = $2
		WHERE id = $3
	`, userID, s.expiry(), id)
	if err != nil {
		return fmt.Errorf("failed to bind session user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotAuthenticated("session expired")
	}
	return nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *PostgresSessionStore) BindTab(ctx context.Context, sessionID uuid.UUID, tabID string, userID *uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		INSERT INTO session_tabs (session_id, tab_id, user_id, expires_at)
		SELECT $1::uuid, $2::text, $3::uuid, $4::timestamptz
		WHERE EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND expires_at > NOW())
		ON CONFLICT (session_id, tab_id)
		DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at
	`, sessionID, tabID, userID, s.expiry())
	if err != nil {
		return fmt.Errorf("failed to bind tab: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotAuthenticated("session expired")
	}
	return nil
}

func (s *PostgresSessionStore) GetTab(ctx context.Context, sessionID uuid.UUID, tabID string) (*models.TabBinding, error) {
	var binding models.TabBinding
	err := s.db.Pool.QueryRow(ctx, `
		SELECT session_id, tab_id, user_id, expires_at
		FROM session_tabs
		WHERE session_id = $1 AND tab_id = $2 AND expires_at > NOW()
	`, sessionID, tabID).Scan(&binding.SessionID, &binding.TabID, &binding.UserID, &binding.ExpiresAt)
	if isNoRows(err) {
		return nil, apperrors.NotFound("tab binding not found")
	}
	if err != nil {
		return nil, err
	}
	return &binding, nil
}

func (s *PostgresSessionStore) DeleteTab(ctx context.Context, sessionID uuid.UUID, tabID string) error {
	_, err := s.db.Pool.Exec(ctx, `
		DELETE FROM session_tabs WHERE session_id = $1 AND tab_id = $2
	`, sessionID, tabID)
	return err
}

// CleanupExpired removes expired tab bindings and sessions and returns how many rows went.
func (s *PostgresSessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tabs, err := tx.Exec(ctx, `DELETE FROM session_tabs WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tab bindings: %w", err)
	}
	sessions, err := tx.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return tabs.RowsAffected() + sessions.RowsAffected(), nil
}

var _ SessionStore = (*PostgresSessionStore)(nil)
