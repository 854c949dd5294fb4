package handlers

import (
	"time"

	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		Provider:  u.Provider,
		Role:      string(u.Role),
	}
}

func toProfileResponse(p *models.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:              p.ID,
		UserID:          p.UserID,
		Role:            string(p.Role),
		DisplayName:     p.DisplayName,
		Bio:             p.Bio,
		CurrentLocation: p.CurrentLocation,
		TargetLocation:  p.TargetLocation,
		VisaType:        p.VisaType,
		Budget:          p.Budget,
		Specialization:  p.Specialization,
		HourlyRate:      p.HourlyRate,
		Rating:          p.Rating,
		Verified:        p.Verified,
	}
}

func toGuideSessionResponse(g *models.GuideSession) dto.GuideSessionResponse {
	resp := dto.GuideSessionResponse{
		ID:            g.ID,
		GuideID:       g.GuideID,
		MigrantID:     g.MigrantID,
		Purpose:       g.Purpose,
		Notes:         g.Notes,
		Budget:        g.Budget,
		Timeline:      g.Timeline,
		RequestStatus: string(g.RequestStatus),
		Status:        string(g.Status),
		CreatedAt:     formatTime(g.CreatedAt),
		UpdatedAt:     formatTime(g.UpdatedAt),
	}
	if g.ScheduledAt != nil {
		s := formatTime(*g.ScheduledAt)
		resp.ScheduledAt = &s
	}
	return resp
}

func toDocumentResponse(d *models.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:          d.ID,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
		Kind:        d.Kind,
		CreatedAt:   formatTime(d.CreatedAt),
	}
}

func toNotificationResponse(n *models.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		RelatedID: n.RelatedID,
		Read:      n.Read,
		CreatedAt: formatTime(n.CreatedAt),
	}
}

func toReviewResponse(r *models.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID:        r.ID,
		GuideID:   r.GuideID,
		MigrantID: r.MigrantID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: formatTime(r.CreatedAt),
	}
}

func toMessageResponse(m *models.Message) dto.MessageItemResponse {
	return dto.MessageItemResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Body:        m.Body,
		CreatedAt:   formatTime(m.CreatedAt),
	}
}
