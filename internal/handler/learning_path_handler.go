package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/luminalearn/lumina-backend/internal/middleware"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/response"
	"github.com/luminalearn/lumina-backend/internal/service"
	"github.com/luminalearn/lumina-backend/internal/validator"
)

// LearningPathHandler handles roadmap endpoints.
type LearningPathHandler struct {
	pathService *service.LearningPathService
}

// NewLearningPathHandler creates a new LearningPathHandler.
func NewLearningPathHandler(pathService *service.LearningPathService) *LearningPathHandler {
	return &LearningPathHandler{pathService: pathService}
}

// Plan godoc
// POST /api/learning-path-plan
// Generates a study roadmap and persists it.
func (h *LearningPathHandler) Plan(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.PlanRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	path, err := h.pathService.Plan(c.Request.Context(), *userID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrGenerationFailed)
		return
	}

	response.Success(c, http.StatusCreated, path)
}

// List godoc
// GET /api/learning-path
// Returns the user's roadmaps without steps.
func (h *LearningPathHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	paths, err := h.pathService.List(c.Request.Context(), *userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paths": paths})
}

// Get godoc
// GET /api/learning-path/:path_id
// Returns one roadmap with its steps.
func (h *LearningPathHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	pathID, err := uuid.Parse(c.Param("path_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	path, err := h.pathService.Get(c.Request.Context(), *userID, pathID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotPathOwner):
			response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, path)
}

// SetStepProgress godoc
// POST /api/learning-path/:path_id/steps/:step_id
// Toggles completion on one step.
func (h *LearningPathHandler) SetStepProgress(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	pathID, err := uuid.Parse(c.Param("path_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	stepID, err := strconv.Atoi(c.Param("step_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.StepProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.pathService.SetStepCompleted(c.Request.Context(), *userID, pathID, stepID, req.Completed); err != nil {
		switch {
		case errors.Is(err, service.ErrNotPathOwner):
			response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"completed": req.Completed})
}
