package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/models"
)

const guideSessionColumns = `id, guide_id, migrant_id, purpose, notes, budget, timeline,
	request_status, status, scheduled_at, created_at, updated_at`

// GuideSessionService runs the consultation request workflow:
// pending -> accepted (scheduled -> completed), or pending -> declined, which deletes the request.
type GuideSessionService struct {
	db            *database.DB
	notifications *NotificationService
}

func NewGuideSessionService(db *database.DB, notifications *NotificationService) *GuideSessionService {
	return &GuideSessionService{db: db, notifications: notifications}
}

func scanGuideSession(row pgx.Row) (*models.GuideSession, error) {
	var gs models.GuideSession
	err := row.Scan(
		&gs.ID, &gs.GuideID, &gs.MigrantID, &gs.Purpose, &gs.Notes, &gs.Budget, &gs.Timeline,
		&gs.RequestStatus, &gs.Status, &gs.ScheduledAt, &gs.CreatedAt, &gs.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &gs, nil
}

func (s *GuideSessionService) Create(ctx context.Context, migrantID uuid.UUID, req models.GuideSessionRequest) (*models.GuideSession, error) {
	req.Purpose = strings.TrimSpace(req.Purpose)
	if req.Purpose == "" {
		return nil, apperrors.Validation("purpose is required")
	}
	if req.Budget.IsNegative() {
		return nil, apperrors.Validation("budget must not be negative")
	}
	if req.GuideID == migrantID {
		return nil, apperrors.Validation("cannot request a session with yourself")
	}

	var guideRole models.Role
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(role, '') FROM users WHERE id = $1
	`, req.GuideID).Scan(&guideRole)
	if isNoRows(err) || (err == nil && guideRole != models.RoleGuide) {
		return nil, apperrors.NotFound("guide not found")
	}
	if err != nil {
		return nil, err
	}

	gs, err := scanGuideSession(s.db.Pool.QueryRow(ctx, `
		INSERT INTO guide_sessions (guide_id, migrant_id, purpose, notes, budget, timeline, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+guideSessionColumns,
		req.GuideID, migrantID, req.Purpose, req.Notes, req.Budget, req.Timeline, req.ScheduledAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create guide session: %w", err)
	}

	s.notifications.Notify(ctx, gs.GuideID, models.NotificationRequestCreated,
		"New consultation request: "+gs.Purpose, &gs.ID)
	return gs, nil
}

func (s *GuideSessionService) GetByID(ctx context.Context, id uuid.UUID) (*models.GuideSession, error) {
	gs, err := scanGuideSession(s.db.Pool.QueryRow(ctx, `
		SELECT `+guideSessionColumns+` FROM guide_sessions WHERE id = $1
	`, id))
	if isNoRows(err) {
		return nil, apperrors.NotFound("session request not found")
	}
	if err != nil {
		return nil, err
	}
	return gs, nil
}

// GetForParticipant returns the request only to its guide or its migrant.
func (s *GuideSessionService) GetForParticipant(ctx context.Context, userID, id uuid.UUID) (*models.GuideSession, error) {
	gs, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gs.HasParticipant(userID) {
		return nil, apperrors.Forbidden("not a participant of this session")
	}
	return gs, nil
}

func (s *GuideSessionService) List(ctx context.Context, filter models.GuideSessionFilter) ([]models.GuideSession, error) {
	var conditions []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, "$"+strconv.Itoa(len(args))))
	}
	if filter.GuideID != nil {
		add("guide_id = %s", *filter.GuideID)
	}
	if filter.MigrantID != nil {
		add("migrant_id = %s", *filter.MigrantID)
	}
	if filter.RequestStatus != "" {
		add("request_status = %s", filter.RequestStatus)
	}

	query := `SELECT ` + guideSessionColumns + ` FROM guide_sessions`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.GuideSession{}
	for rows.Next() {
		gs, err := scanGuideSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *gs)
	}
	return sessions, rows.Err()
}

// Respond lets the addressed guide accept or decline a pending request. Accepting schedules it;
// declining deletes it and returns a nil session. Requests that are no longer pending are treated
// as missing.
func (s *GuideSessionService) Respond(ctx context.Context, guideID, id uuid.UUID, accept bool) (*models.GuideSession, error) {
	gs, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs.GuideID != guideID {
		return nil, apperrors.Forbidden("only the addressed guide can respond")
	}
	if gs.RequestStatus != models.RequestStatusPending {
		return nil, apperrors.NotFound("no pending request with this id")
	}

	if !accept {
		result, err := s.db.Pool.Exec(ctx, `
			DELETE FROM guide_sessions WHERE id = $1 AND request_status = $2
		`, id, models.RequestStatusPending)
		if err != nil {
			return nil, fmt.Errorf("failed to decline request: %w", err)
		}
		if result.RowsAffected() == 0 {
			return nil, apperrors.NotFound("no pending request with this id")
		}
		s.notifications.Notify(ctx, gs.MigrantID, models.NotificationRequestDeclined,
			"Your consultation request was declined: "+gs.Purpose, nil)
		return nil, nil
	}

	accepted, err := scanGuideSession(s.db.Pool.QueryRow(ctx, `
		UPDATE guide_sessions SET request_status = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND request_status = $4
		RETURNING `+guideSessionColumns,
		models.RequestStatusAccepted, models.SessionStatusScheduled, id, models.RequestStatusPending))
	if isNoRows(err) {
		return nil, apperrors.NotFound("no pending request with this id")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to accept request: %w", err)
	}

	s.notifications.Notify(ctx, accepted.MigrantID, models.NotificationRequestAccepted,
		"Your consultation request was accepted: "+accepted.Purpose, &accepted.ID)
	return accepted, nil
}

// Complete marks a scheduled session as done. Only its guide may do so.
func (s *GuideSessionService) Complete(ctx context.Context, guideID, id uuid.UUID) (*models.GuideSession, error) {
	gs, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs.GuideID != guideID {
		return nil, apperrors.Forbidden("only the guide can complete a session")
	}

	completed, err := scanGuideSession(s.db.Pool.QueryRow(ctx, `
		UPDATE guide_sessions SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+guideSessionColumns,
		models.SessionStatusCompleted, id, models.SessionStatusScheduled))
	if isNoRows(err) {
		return nil, apperrors.Validation("only scheduled sessions can be completed")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	s.notifications.Notify(ctx, completed.MigrantID, models.NotificationRequestCompleted,
		"Your session is complete. You can now review your guide.", &completed.ID)
	return completed, nil
}

// Update edits a request the migrant still owns and the guide has not answered.
func (s *GuideSessionService) Update(ctx context.Context, migrantID, id uuid.UUID, upd models.GuideSessionUpdate) (*models.GuideSession, error) {
	if upd.Purpose != nil && strings.TrimSpace(*upd.Purpose) == "" {
		return nil, apperrors.Validation("purpose must not be empty")
	}
	if upd.Budget != nil && upd.Budget.IsNegative() {
		return nil, apperrors.Validation("budget must not be negative")
	}

	gs, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs.MigrantID != migrantID {
		return nil, apperrors.Forbidden("only the requesting migrant can edit this request")
	}

	updated, err := scanGuideSession(s.db.Pool.QueryRow(ctx, `
		UPDATE guide_sessions SET
			purpose = COALESCE($1, purpose),
			notes = COALESCE($2, notes),
			budget = COALESCE($3, budget),
			timeline = COALESCE($4, timeline),
			scheduled_at = COALESCE($5, scheduled_at),
			updated_at = NOW()
		WHERE id = $6 AND request_status = $7
		RETURNING `+guideSessionColumns,
		upd.Purpose, upd.Notes, upd.Budget, upd.Timeline, upd.ScheduledAt, id, models.RequestStatusPending))
	if isNoRows(err) {
		return nil, apperrors.Validation("only pending requests can be edited")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}
	return updated, nil
}

// Cancel withdraws a pending request on behalf of its migrant.
func (s *GuideSessionService) Cancel(ctx context.Context, migrantID, id uuid.UUID) error {
	gs, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if gs.MigrantID != migrantID {
		return apperrors.Forbidden("only the requesting migrant can cancel this request")
	}

	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM guide_sessions WHERE id = $1 AND request_status = $2
	`, id, models.RequestStatusPending)
	if err != nil {
		return fmt.Errorf("failed to cancel request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.Validation("only pending requests can be cancelled")
	}
	return nil
}

// HasCompletedSession reports whether the migrant finished at least one session with the guide.
func (s *GuideSessionService) HasCompletedSession(ctx context.Context, guideID, migrantID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM guide_sessions
			WHERE guide_id = $1 AND migrant_id = $2 AND status = $3
		)
	`, guideID, migrantID, models.SessionStatusCompleted).Scan(&exists)
	return exists, err
}
