package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/internal/oauth"
	"github.com/voyagery/voyagery-api/internal/services"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo, role models.Role) (*models.User, error)
	DemoLogin(ctx context.Context, role models.Role) (*models.User, error)
	ManualLogin(ctx context.Context, email, name string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	AssignRole(ctx context.Context, userID uuid.UUID, role models.Role) (*models.User, error)
}

// AuthServiceInterface defines the methods used by handlers from AuthService
type AuthServiceInterface interface {
	Login(ctx context.Context, sessionID *uuid.UUID, tabID string, userID uuid.UUID) (*models.Session, error)
	Logout(ctx context.Context, sessionID uuid.UUID, tabID string, tabOnly bool) error
	ForgetTab(ctx context.Context, sessionID uuid.UUID, tabID string) error
}

// ProfileServiceInterface defines the methods used by handlers from ProfileService
type ProfileServiceInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error)
	ListGuides(ctx context.Context) ([]models.Profile, error)
}

// GuideSessionServiceInterface defines the methods used by handlers from GuideSessionService
type GuideSessionServiceInterface interface {
	Create(ctx context.Context, migrantID uuid.UUID, req models.GuideSessionRequest) (*models.GuideSession, error)
	GetForParticipant(ctx context.Context, userID, id uuid.UUID) (*models.GuideSession, error)
	List(ctx context.Context, filter models.GuideSessionFilter) ([]models.GuideSession, error)
	Respond(ctx context.Context, guideID, id uuid.UUID, accept bool) (*models.GuideSession, error)
	Complete(ctx context.Context, guideID, id uuid.UUID) (*models.GuideSession, error)
	Update(ctx context.Context, migrantID, id uuid.UUID, upd models.GuideSessionUpdate) (*models.GuideSession, error)
	Cancel(ctx context.Context, migrantID, id uuid.UUID) error
}

// DocumentServiceInterface defines the methods used by handlers from DocumentService
type DocumentServiceInterface interface {
	Upload(ctx context.Context, ownerID uuid.UUID, upload services.DocumentUpload) (*models.Document, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Document, error)
	Open(ctx context.Context, ownerID, id uuid.UUID) (*models.Document, io.ReadCloser, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// NotificationServiceInterface defines the methods used by handlers from NotificationService
type NotificationServiceInterface interface {
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ReviewServiceInterface defines the methods used by handlers from ReviewService
type ReviewServiceInterface interface {
	Submit(ctx context.Context, migrantID, guideID uuid.UUID, rating int, comment string) (*models.Review, error)
	ListForGuide(ctx context.Context, guideID uuid.UUID) ([]models.Review, error)
}

// MessageServiceInterface defines the methods used by handlers from MessageService
type MessageServiceInterface interface {
	Send(ctx context.Context, senderID, recipientID uuid.UUID, body string) (*models.Message, error)
	Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]models.Message, error)
}

// DashboardServiceInterface defines the methods used by handlers from DashboardService
type DashboardServiceInterface interface {
	Stats(ctx context.Context, user *models.User) (*services.DashboardStats, error)
}

// HealthChecker is anything the health endpoint should ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
