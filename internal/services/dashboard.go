package services

import (
	"context"

	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/models"
)

type DashboardStats struct {
	PendingRequests     int64 `json:"pending_requests"`
	ScheduledSessions   int64 `json:"scheduled_sessions"`
	CompletedSessions   int64 `json:"completed_sessions"`
	UnreadNotifications int64 `json:"unread_notifications"`
}

type DashboardService struct {
	db *database.DB
}

func NewDashboardService(db *database.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats counts the user's sessions from the side of their role.
func (s *DashboardService) Stats(ctx context.Context, user *models.User) (*DashboardStats, error) {
	column := ""
	switch user.Role {
	case models.RoleGuide:
		column = "guide_id"
	case models.RoleMigrant:
		column = "migrant_id"
	default:
		return nil, apperrors.Validation("user has no role")
	}

	var stats DashboardStats
	err := s.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE request_status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'scheduled'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			(SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE)
		FROM guide_sessions
		WHERE `+column+` = $1
	`, user.ID).Scan(&stats.PendingRequests, &stats.ScheduledSessions, &stats.CompletedSessions, &stats.UnreadNotifications)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
