package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/internal/oauth"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values and no role
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:      fmt.Sprintf("user%d@example.com", f.counter),
		Name:       fmt.Sprintf("Test User %d", f.counter),
		Provider:   models.ProviderGoogle,
		ProviderID: fmt.Sprintf("provider-%d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	var role *models.Role
	if user.Role != "" {
		role = &user.Role
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider, provider_id, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.AvatarURL, user.Provider, user.ProviderID, role).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// WithProvider sets the user's OAuth provider
func WithProvider(provider, providerID string) UserOption {
	return func(u *models.User) {
		u.Provider = provider
		u.ProviderID = providerID
	}
}

// WithRole stores the user with a role already chosen. No profile is created.
func WithRole(role models.Role) UserOption {
	return func(u *models.User) {
		u.Role = role
	}
}

// CreateGuideSession inserts a pending consultation request from migrant to guide
func (f *Fixtures) CreateGuideSession(t *testing.T, guide, migrant *models.User) *models.GuideSession {
	t.Helper()
	f.counter++

	gs := &models.GuideSession{
		GuideID:       guide.ID,
		MigrantID:     migrant.ID,
		Purpose:       fmt.Sprintf("Consultation %d", f.counter),
		Budget:        decimal.NewFromInt(100),
		RequestStatus: models.RequestStatusPending,
		Status:        models.SessionStatusPending,
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO guide_sessions (guide_id, migrant_id, purpose, budget, request_status, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, gs.GuideID, gs.MigrantID, gs.Purpose, gs.Budget, gs.RequestStatus, gs.Status).Scan(
		&gs.ID, &gs.CreatedAt, &gs.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create guide session: %v", err)
	}

	return gs
}

// CountProfiles returns how many profile rows exist for userID
func (f *Fixtures) CountProfiles(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	var n int
	if err := f.db.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM profiles WHERE user_id = $1`, userID.String()).Scan(&n); err != nil {
		t.Fatalf("failed to count profiles: %v", err)
	}
	return n
}

// OAuthUserInfo creates test OAuth user info
func OAuthUserInfo(email, name, provider, id string) *oauth.UserInfo {
	return &oauth.UserInfo{
		Email:     email,
		Name:      name,
		AvatarURL: "https://example.com/avatar.png",
		ID:        id,
		Provider:  provider,
	}
}
