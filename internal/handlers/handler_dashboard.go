package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/middleware"
)

type dashboardHandler struct {
	dashboardService portssvc.DashboardSvc
}

func registerDashboardRoutes(rg *gin.RouterGroup, dashboardService portssvc.DashboardSvc) {
	h := &dashboardHandler{dashboardService: dashboardService}
	rg.GET("/dashboard/stats", h.getStats)
}

// getStats godoc
// @Summary Dashboard counters
// @Description Totals by status for every kind, summed over the caller's scope, plus unread counts.
// @Tags dashboard
// @Produce json
// @Success 200 {object} domain.DashboardStats
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *dashboardHandler) getStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	stats, err := h.dashboardService.GetStats(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to load dashboard stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
