package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/internal/oauth"
)

const userColumns = `id, email, name, avatar_url, provider, provider_id, COALESCE(role, ''), created_at, updated_at`

type UserService struct {
	db       *database.DB
	profiles *ProfileService
}

func NewUserService(db *database.DB, profiles *ProfileService) *UserService {
	return &UserService{db: db, profiles: profiles}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateFromOAuth upserts the user behind an identity-provider login. A role chosen before
// the redirect is applied to new users and to existing users that have none yet.
func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo, role models.Role) (*models.User, error) {
	if role != "" && !models.IsValidRole(role) {
		return nil, apperrors.Validation("invalid role")
	}

	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE provider = $1 AND provider_id = $2
	`, info.Provider, info.ID))

	if err == nil {
		if user.Email != info.Email || user.Name != info.Name || (user.AvatarURL == nil && info.AvatarURL != "") {
			if _, err := s.db.Pool.Exec(ctx, `
				UPDATE users SET email = $1, name = $2, avatar_url = $3, updated_at = NOW()
				WHERE id = $4
			`, info.Email, info.Name, nullableString(info.AvatarURL), user.ID); err != nil {
				return nil, fmt.Errorf("failed to refresh user: %w", err)
			}
			user.Email = info.Email
			user.Name = info.Name
			if info.AvatarURL != "" {
				user.AvatarURL = &info.AvatarURL
			}
		}
		if !user.HasRole() {
			if role == "" {
				return user, nil
			}
			return s.AssignRole(ctx, user.ID, role)
		}
		// repairs accounts whose profile went missing
		if _, err := s.profiles.EnsureForUser(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err = scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider, provider_id, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		info.Email, info.Name, nullableString(info.AvatarURL), info.Provider, info.ID, nullableRole(role)))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if user.HasRole() {
		if _, err := s.profiles.ensure(ctx, tx, user, nil); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

// DemoLogin returns the shared demo account for role, creating it and its profile on first use.
func (s *UserService) DemoLogin(ctx context.Context, role models.Role) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, apperrors.Validation("role must be migrant or guide")
	}

	email := DemoEmail(role)
	name := "Demo " + strings.ToUpper(string(role[:1])) + string(role[1:])

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Concurrent first logins race on the (provider, provider_id) key; the loser updates instead.
	user, err := scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (email, name, provider, provider_id, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, provider_id)
		DO UPDATE SET role = COALESCE(users.role, EXCLUDED.role), updated_at = NOW()
		RETURNING `+userColumns,
		email, name, models.ProviderDemo, email, role))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert demo user: %w", err)
	}

	if _, err := s.profiles.ensure(ctx, tx, user, demoProfileDefaults(user.Role)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

func DemoEmail(role models.Role) string {
	return fmt.Sprintf("demo-%s@voyagery.dev", role)
}

func demoProfileDefaults(role models.Role) *models.Profile {
	if role == models.RoleGuide {
		return &models.Profile{
			Bio:            "Licensed immigration consultant for study and work permits.",
			Specialization: "Study & work permits",
			HourlyRate:     decimal.NewFromInt(80),
			Verified:       true,
		}
	}
	return &models.Profile{
		Bio:             "Planning a move abroad for graduate studies.",
		CurrentLocation: "Lagos, Nigeria",
		TargetLocation:  "Toronto, Canada",
		VisaType:        "Study permit",
		Budget:          decimal.NewFromInt(2500),
	}
}

// ManualLogin finds an existing user by email, or failing that by name. Names match exactly
// first and then by substring; all comparisons ignore case. No account is ever created.
func (s *UserService) ManualLogin(ctx context.Context, email, name string) (*models.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" && name == "" {
		return nil, apperrors.Validation("email or name is required")
	}

	if email != "" {
		user, err := scanUser(s.db.Pool.QueryRow(ctx, `
			SELECT `+userColumns+` FROM users
			WHERE LOWER(email) = LOWER($1)
			ORDER BY created_at LIMIT 1
		`, email))
		if err == nil {
			return user, nil
		}
		if !isNoRows(err) {
			return nil, err
		}
	}

	if name != "" {
		user, err := scanUser(s.db.Pool.QueryRow(ctx, `
			SELECT `+userColumns+` FROM users
			WHERE LOWER(name) = LOWER($1)
			ORDER BY created_at LIMIT 1
		`, name))
		if err == nil {
			return user, nil
		}
		if !isNoRows(err) {
			return nil, err
		}

		user, err = scanUser(s.db.Pool.QueryRow(ctx, `
			SELECT `+userColumns+` FROM users
			WHERE name ILIKE '%' || $1 || '%'
			ORDER BY created_at LIMIT 1
		`, escapeLike(name)))
		if err == nil {
			return user, nil
		}
		if !isNoRows(err) {
			return nil, err
		}
	}

	return nil, apperrors.NotFound("no user matches the given email or name")
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id))
	if isNoRows(err) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// AssignRole sets the user's role once. Repeating the same role is a no-op; changing an
// existing role is rejected. The profile is created in the same transaction.
func (s *UserService) AssignRole(ctx context.Context, userID uuid.UUID, role models.Role) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, apperrors.Validation("role must be migrant or guide")
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE id = $2 AND role IS NULL
		RETURNING `+userColumns, role, userID))
	if isNoRows(err) {
		user, err = scanUser(tx.QueryRow(ctx, `
			SELECT `+userColumns+` FROM users WHERE id = $1
		`, userID))
		if isNoRows(err) {
			return nil, apperrors.NotFound("user not found")
		}
		if err != nil {
			return nil, err
		}
		if user.Role != role {
			return nil, apperrors.Validation("role already set")
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}

	if _, err := s.profiles.ensure(ctx, tx, user, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

func nullableRole(role models.Role) *models.Role {
	if role == "" {
		return nil
	}
	return &role
}
