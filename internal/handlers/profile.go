package handlers

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/middleware"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

type ProfileHandler struct {
	profileService ProfileServiceInterface
}

func NewProfileHandler(profileService ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get returns a user's profile. The id "me" stands for the caller.
func (h *ProfileHandler) Get(c *drift.Context) {
	var userID uuid.UUID
	if c.Param("userId") == "me" {
		userID = middleware.GetUserID(c)
	} else {
		id, err := pathUUID(c, "userId")
		if err != nil {
			respondError(c, err)
			return
		}
		userID = id
	}

	profile, err := h.profileService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, toProfileResponse(profile))
}

func (h *ProfileHandler) UpdateMe(c *drift.Context) {
	var req dto.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), middleware.GetUserID(c), models.ProfileUpdate{
		DisplayName:     req.DisplayName,
		Bio:             req.Bio,
		CurrentLocation: req.CurrentLocation,
		TargetLocation:  req.TargetLocation,
		VisaType:        req.VisaType,
		Budget:          req.Budget,
		Specialization:  req.Specialization,
		HourlyRate:      req.HourlyRate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, toProfileResponse(profile))
}

func (h *ProfileHandler) ListGuides(c *drift.Context) {
	profiles, err := h.profileService.ListGuides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]dto.ProfileResponse, len(profiles))
	for i := range profiles {
		response[i] = toProfileResponse(&profiles[i])
	}

	_ = c.JSON(200, response)
}
