package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/middleware"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

type MessageHandler struct {
	messageService MessageServiceInterface
}

func NewMessageHandler(messageService MessageServiceInterface) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) Send(c *drift.Context) {
	var req dto.SendMessageRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), middleware.GetUserID(c), req.RecipientID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(201, toMessageResponse(msg))
}

// Conversation lists messages exchanged with the user given by ?with=.
func (h *MessageHandler) Conversation(c *drift.Context) {
	otherID, err := queryUUID(c, "with")
	if err != nil {
		respondError(c, err)
		return
	}
	if otherID == nil {
		respondError(c, apperrors.Validation("with is required"))
		return
	}

	messages, err := h.messageService.Conversation(c.Request.Context(), middleware.GetUserID(c), *otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]dto.MessageItemResponse, len(messages))
	for i := range messages {
		response[i] = toMessageResponse(&messages[i])
	}

	_ = c.JSON(200, response)
}
