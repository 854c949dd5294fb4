package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/middleware"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

type GuideSessionHandler struct {
	guideSessionService GuideSessionServiceInterface
}

func NewGuideSessionHandler(guideSessionService GuideSessionServiceInterface) *GuideSessionHandler {
	return &GuideSessionHandler{guideSessionService: guideSessionService}
}

// List returns requests filtered by guideId, migrantId and requestStatus. Callers only ever see
// requests they take part in: the filter for their own side is forced to themselves.
func (h *GuideSessionHandler) List(c *drift.Context) {
	user := middleware.GetUser(c)

	guideID, err := queryUUID(c, "guideId")
	if err != nil {
		respondError(c, err)
		return
	}
	migrantID, err := queryUUID(c, "migrantId")
	if err != nil {
		respondError(c, err)
		return
	}

	filter := models.GuideSessionFilter{
		GuideID:       guideID,
		MigrantID:     migrantID,
		RequestStatus: models.RequestStatus(c.QueryParam("requestStatus")),
	}
	switch filter.RequestStatus {
	case "", models.RequestStatusPending, models.RequestStatusAccepted:
	default:
		respondError(c, apperrors.Validation("invalid requestStatus"))
		return
	}

	switch user.Role {
	case models.RoleGuide:
		if filter.GuideID != nil && *filter.GuideID != user.ID {
			respondError(c, apperrors.Forbidden("cannot list another guide's requests"))
			return
		}
		filter.GuideID = &user.ID
	case models.RoleMigrant:
		if filter.MigrantID != nil && *filter.MigrantID != user.ID {
			respondError(c, apperrors.Forbidden("cannot list another migrant's requests"))
			return
		}
		filter.MigrantID = &user.ID
	default:
		respondError(c, apperrors.Validation("select a role first"))
		return
	}

	sessions, err := h.guideSessionService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]dto.GuideSessionResponse, len(sessions))
	for i := range sessions {
		response[i] = toGuideSessionResponse(&sessions[i])
	}

	_ = c.JSON(200, response)
}

func (h *GuideSessionHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)

	var req dto.CreateGuideSessionRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}

	session, err := h.guideSessionService.Create(c.Request.Context(), userID, models.GuideSessionRequest{
		GuideID:     req.GuideID,
		Purpose:     req.Purpose,
		Notes:       req.Notes,
		Budget:      req.Budget,
		Timeline:    req.Timeline,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(201, toGuideSessionResponse(session))
}

func (h *GuideSessionHandler) Get(c *drift.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.guideSessionService.GetForParticipant(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, toGuideSessionResponse(session))
}

func (h *GuideSessionHandler) Update(c *drift.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req dto.UpdateGuideSessionRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}

	session, err := h.guideSessionService.Update(c.Request.Context(), middleware.GetUserID(c), id, models.GuideSessionUpdate{
		Purpose:     req.Purpose,
		Notes:       req.Notes,
		Budget:      req.Budget,
		Timeline:    req.Timeline,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, toGuideSessionResponse(session))
}

// Cancel withdraws a pending request on behalf of the migrant who made it.
func (h *GuideSessionHandler) Cancel(c *drift.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.guideSessionService.Cancel(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "request cancelled"})
}

func (h *GuideSessionHandler) Accept(c *drift.Context) {
	h.respond(c, true)
}

func (h *GuideSessionHandler) Decline(c *drift.Context) {
	h.respond(c, false)
}

func (h *GuideSessionHandler) respond(c *drift.Context, accept bool) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.guideSessionService.Respond(c.Request.Context(), middleware.GetUserID(c), id, accept)
	if err != nil {
		respondError(c, err)
		return
	}

	if !accept {
		_ = c.JSON(200, dto.RespondResponse{RequestStatus: string(models.RequestStatusDeclined)})
		return
	}

	resp := toGuideSessionResponse(session)
	_ = c.JSON(200, dto.RespondResponse{
		RequestStatus: resp.RequestStatus,
		Session:       &resp,
	})
}

func (h *GuideSessionHandler) Complete(c *drift.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.guideSessionService.Complete(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, toGuideSessionResponse(session))
}
