package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/luminalearn/lumina-backend/internal/middleware"
	"github.com/luminalearn/lumina-backend/internal/response"
	"github.com/luminalearn/lumina-backend/internal/service"
)

// AnalyticsHandler handles the learner dashboard endpoint.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// Dashboard godoc
// GET /api/analytics/dashboard
// Aggregated stats for the identified user (bearer token or X-User-Id).
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	stats, err := h.analyticsService.Dashboard(c.Request.Context(), *userID)
	if err != nil {
		log.Error().Err(err).Int("user_id", *userID).Msg("dashboard aggregation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, stats)
}
