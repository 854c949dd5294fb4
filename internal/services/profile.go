package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/models"
)

const profileColumns = `id, user_id, role, display_name, bio, current_location, target_location, visa_type,
	budget, specialization, hourly_rate, rating, verified, created_at, updated_at`

type ProfileService struct {
	db *database.DB
}

func NewProfileService(db *database.DB) *ProfileService {
	return &ProfileService{db: db}
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Role, &p.DisplayName, &p.Bio, &p.CurrentLocation, &p.TargetLocation, &p.VisaType,
		&p.Budget, &p.Specialization, &p.HourlyRate, &p.Rating, &p.Verified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureForUser creates the user's profile if it is missing. An existing profile is never
// overwritten; only its role is realigned with the user's role.
func (s *ProfileService) EnsureForUser(ctx context.Context, user *models.User) (*models.Profile, error) {
	return s.ensure(ctx, s.db.Pool, user, nil)
}

// ensure runs on q so callers can create the profile in the same transaction that assigns the role.
// defaults seeds the placeholder fields of a freshly created profile.
func (s *ProfileService) ensure(ctx context.Context, q querier, user *models.User, defaults *models.Profile) (*models.Profile, error) {
	if !models.IsValidRole(user.Role) {
		return nil, apperrors.Validation("user has no role")
	}
	if defaults == nil {
		defaults = &models.Profile{}
	}

	_, err := q.Exec(ctx, `
		INSERT INTO profiles (user_id, role, display_name, bio, current_location, target_location, visa_type,
			budget, specialization, hourly_rate, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO NOTHING
	`, user.ID.String(), user.Role, user.Name, defaults.Bio, defaults.CurrentLocation, defaults.TargetLocation,
		defaults.VisaType, defaults.Budget, defaults.Specialization, defaults.HourlyRate, defaults.Verified)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	profile, err := scanProfile(q.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM profiles WHERE user_id = $1
	`, user.ID.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if profile.Role != user.Role {
		profile, err = scanProfile(q.QueryRow(ctx, `
			UPDATE profiles SET role = $1, updated_at = NOW()
			WHERE user_id = $2
			RETURNING `+profileColumns, user.Role, user.ID.String()))
		if err != nil {
			return nil, fmt.Errorf("failed to realign profile role: %w", err)
		}
	}

	return profile, nil
}

func (s *ProfileService) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := scanProfile(s.db.Pool.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM profiles WHERE user_id = $1
	`, userID.String()))
	if isNoRows(err) {
		return nil, apperrors.NotFound("profile not found")
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error) {
	if upd.Budget != nil && upd.Budget.IsNegative() {
		return nil, apperrors.Validation("budget must not be negative")
	}
	if upd.HourlyRate != nil && upd.HourlyRate.IsNegative() {
		return nil, apperrors.Validation("hourly_rate must not be negative")
	}

	profile, err := scanProfile(s.db.Pool.QueryRow(ctx, `
		UPDATE profiles SET
			display_name = COALESCE($1, display_name),
			bio = COALESCE($2, bio),
			current_location = COALESCE($3, current_location),
			target_location = COALESCE($4, target_location),
			visa_type = COALESCE($5, visa_type),
			budget = COALESCE($6, budget),
			specialization = COALESCE($7, specialization),
			hourly_rate = COALESCE($8, hourly_rate),
			updated_at = NOW()
		WHERE user_id = $9
		RETURNING `+profileColumns,
		upd.DisplayName, upd.Bio, upd.CurrentLocation, upd.TargetLocation, upd.VisaType,
		upd.Budget, upd.Specialization, upd.HourlyRate, userID.String()))
	if isNoRows(err) {
		return nil, apperrors.NotFound("profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// ListGuides returns guide profiles, best rated first.
func (s *ProfileService) ListGuides(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+profileColumns+` FROM profiles
		WHERE role = $1
		ORDER BY rating DESC, created_at ASC
	`, models.RoleGuide)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// RecalculateRating sets a guide's rating to the average of the reviews they received.
func (s *ProfileService) RecalculateRating(ctx context.Context, guideID uuid.UUID) (decimal.Decimal, error) {
	return s.recalculateRating(ctx, s.db.Pool, guideID)
}

func (s *ProfileService) recalculateRating(ctx context.Context, q querier, guideID uuid.UUID) (decimal.Decimal, error) {
	var rating decimal.Decimal
	err := q.QueryRow(ctx, `
		UPDATE profiles SET
			rating = COALESCE((SELECT ROUND(AVG(rating), 2) FROM reviews WHERE guide_id = $1), 0),
			updated_at = NOW()
		WHERE user_id = $2
		RETURNING rating
	`, guideID, guideID.String()).Scan(&rating)
	if isNoRows(err) {
		return decimal.Zero, apperrors.NotFound("guide profile not found")
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to recalculate rating: %w", err)
	}
	return rating, nil
}

// UsersMissingProfile lists users that picked a role but have no profile row.
func (s *ProfileService) UsersMissingProfile(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+` FROM users u
		WHERE u.role IS NOT NULL
		AND NOT EXISTS (SELECT 1 FROM profiles p WHERE p.user_id = u.id::text)
		ORDER BY u.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
