package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/models"
)

type userGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthService resolves who is logged in for a given session and browser tab.
//
// A session has a default user, set by the most recent login in any tab. A tab that logged in
// itself is pinned to that user; a tab seen for the first time is pinned to the default user at
// that moment. Later logins in other tabs therefore never change what an existing tab sees.
type AuthService struct {
	users    userGetter
	sessions SessionStore
}

func NewAuthService(users userGetter, sessions SessionStore) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// Login makes userID the session's default user and pins tabID to it. A missing or expired
// session is replaced by a new one, which the caller must send back as a cookie.
func (s *AuthService) Login(ctx context.Context, sessionID *uuid.UUID, tabID string, userID uuid.UUID) (*models.Session, error) {
	var session *models.Session
	if sessionID != nil {
		existing, err := s.sessions.Get(ctx, *sessionID)
		if err != nil && !errors.Is(err, apperrors.ErrNotAuthenticated) {
			return nil, err
		}
		session = existing
	}
	if session == nil {
		created, err := s.sessions.Create(ctx)
		if err != nil {
			return nil, err
		}
		session = created
	}

	if err := s.sessions.SetUser(ctx, session.ID, userID); err != nil {
		return nil, err
	}
	session.UserID = &userID

	if tabID != "" {
		if err := s.sessions.BindTab(ctx, session.ID, tabID, &userID); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// ResolveCurrent returns the user the tab is logged in as, extending the session on success.
// It never returns a nil user without an error.
func (s *AuthService) ResolveCurrent(ctx context.Context, sessionID uuid.UUID, tabID string) (*models.User, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if tabID != "" {
		binding, err := s.sessions.GetTab(ctx, sessionID, tabID)
		switch {
		case err == nil:
			if binding.UserID == nil {
				return nil, apperrors.NotAuthenticated("")
			}
			user, err := s.loadUser(ctx, *binding.UserID)
			if err != nil {
				_ = s.sessions.DeleteTab(ctx, sessionID, tabID)
				return nil, err
			}
			s.touch(ctx, sessionID)
			return user, nil
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, err
		}
	}

	if session.UserID == nil {
		return nil, apperrors.NotAuthenticated("")
	}

	user, err := s.loadUser(ctx, *session.UserID)
	if err != nil {
		return nil, err
	}

	if tabID != "" {
		if err := s.sessions.BindTab(ctx, sessionID, tabID, &user.ID); err != nil {
			slog.WarnContext(ctx, "failed to pin tab to session user", "session_id", sessionID, "error", err)
		}
	}
	s.touch(ctx, sessionID)
	return user, nil
}

func (s *AuthService) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotAuthenticated("")
	}
	return user, err
}

func (s *AuthService) touch(ctx context.Context, sessionID uuid.UUID) {
	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		slog.WarnContext(ctx, "failed to extend session", "session_id", sessionID, "error", err)
	}
}

// Logout ends the login of one tab, or of the whole session when tabOnly is false. A logged out
// tab keeps an empty binding so it does not pick up the session's default user again.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID, tabID string, tabOnly bool) error {
	if tabOnly {
		if tabID == "" {
			return apperrors.Validation("tab id is required for a tab logout")
		}
		return s.sessions.BindTab(ctx, sessionID, tabID, nil)
	}
	return s.sessions.Delete(ctx, sessionID)
}

// ForgetTab drops the binding of a closed tab.
func (s *AuthService) ForgetTab(ctx context.Context, sessionID uuid.UUID, tabID string) error {
	return s.sessions.DeleteTab(ctx, sessionID, tabID)
}
