package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/middleware"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

type ReviewHandler struct {
	reviewService ReviewServiceInterface
}

func NewReviewHandler(reviewService ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) Create(c *drift.Context) {
	var req dto.CreateReviewRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}

	review, err := h.reviewService.Submit(c.Request.Context(), middleware.GetUserID(c), req.GuideID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(201, toReviewResponse(review))
}

func (h *ReviewHandler) List(c *drift.Context) {
	guideID, err := queryUUID(c, "guideId")
	if err != nil {
		respondError(c, err)
		return
	}
	if guideID == nil {
		respondError(c, apperrors.Validation("guideId is required"))
		return
	}

	reviews, err := h.reviewService.ListForGuide(c.Request.Context(), *guideID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]dto.ReviewResponse, len(reviews))
	for i := range reviews {
		response[i] = toReviewResponse(&reviews[i])
	}

	_ = c.JSON(200, response)
}
