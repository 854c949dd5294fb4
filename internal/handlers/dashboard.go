package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/middleware"
)

type DashboardHandler struct {
	dashboardService DashboardServiceInterface
}

func NewDashboardHandler(dashboardService DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) Stats(c *drift.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, stats)
}
