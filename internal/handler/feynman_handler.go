package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/response"
	"github.com/luminalearn/lumina-backend/internal/sanitize"
	"github.com/luminalearn/lumina-backend/internal/service"
	"github.com/luminalearn/lumina-backend/internal/validator"
)

// FeynmanHandler handles teach-back session endpoints.
type FeynmanHandler struct {
	feynmanService *service.FeynmanService
}

// NewFeynmanHandler creates a new FeynmanHandler.
func NewFeynmanHandler(feynmanService *service.FeynmanService) *FeynmanHandler {
	return &FeynmanHandler{feynmanService: feynmanService}
}

// Start godoc
// POST /api/feynman/start
// Opens a teach-back session with a chosen persona.
func (h *FeynmanHandler) Start(c *gin.Context) {
	var req model.FeynmanStartRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.feynmanService.Start(c.Request.Context(), &req)
	if err != nil {
		h.failFeynman(c, err)
		return
	}

	resp.Greeting = sanitize.DisplayString(resp.Greeting)
	response.Success(c, http.StatusCreated, resp)
}

// Chat godoc
// POST /api/feynman/chat
// One teaching turn: the learner explains, the persona reacts.
func (h *FeynmanHandler) Chat(c *gin.Context) {
	var req model.FeynmanChatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.feynmanService.Chat(c.Request.Context(), &req)
	if err != nil {
		h.failFeynman(c, err)
		return
	}

	resp.Response = sanitize.DisplayString(resp.Response)
	response.Success(c, http.StatusOK, resp)
}

// Evaluate godoc
// POST /api/feynman/evaluate
// Grades the session and closes it.
func (h *FeynmanHandler) Evaluate(c *gin.Context) {
	var req model.FeynmanEvaluateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	report, err := h.feynmanService.Evaluate(c.Request.Context(), &req)
	if err != nil {
		h.failFeynman(c, err)
		return
	}

	report.Feedback = sanitize.DisplayString(report.Feedback)
	response.Success(c, http.StatusOK, report)
}

func (h *FeynmanHandler) failFeynman(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLLMUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrGenerationFailed)
	case errors.Is(err, service.ErrFeynmanSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
