package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/middleware"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *drift.Context) {
	unreadOnly := c.QueryParam("unread") == "true"

	notifications, err := h.notificationService.ListForUser(c.Request.Context(), middleware.GetUserID(c), unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]dto.NotificationResponse, len(notifications))
	for i := range notifications {
		response[i] = toNotificationResponse(&notifications[i])
	}

	_ = c.JSON(200, response)
}

func (h *NotificationHandler) MarkRead(c *drift.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *drift.Context) {
	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, dto.MarkAllReadResponse{Updated: updated})
}
