package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/luminalearn/lumina-backend/internal/middleware"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/response"
	"github.com/luminalearn/lumina-backend/internal/sanitize"
	"github.com/luminalearn/lumina-backend/internal/service"
	"github.com/luminalearn/lumina-backend/internal/validator"
)

// VoiceHandler handles voice Q&A, TTS, and chat history endpoints.
type VoiceHandler struct {
	voiceService *service.VoiceService
}

// NewVoiceHandler creates a new VoiceHandler.
func NewVoiceHandler(voiceService *service.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService}
}

// Ask godoc
// POST /api/voice-qa
// Runs one chat or interview turn; history is kept per session.
func (h *VoiceHandler) Ask(c *gin.Context) {
	var req model.VoiceQARequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.voiceService.Answer(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrLLMUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrGenerationFailed)
			return
		}
		log.Error().Err(err).Msg("voice qa turn failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// Model output is untrusted before rendering.
	resp.Answer = sanitize.DisplayString(resp.Answer)
	response.Success(c, http.StatusOK, resp)
}

// Synthesize godoc
// POST /api/tts
// Converts text to speech, returning base64 audio.
func (h *VoiceHandler) Synthesize(c *gin.Context) {
	var req model.TTSRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.voiceService.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrLLMUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrGenerationFailed)
			return
		}
		log.Error().Err(err).Msg("tts synthesis failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// SaveChat godoc
// POST /api/chat/save
// Persists a client-recorded conversation turn.
func (h *VoiceHandler) SaveChat(c *gin.Context) {
	var req model.SaveChatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	msg, err := h.voiceService.SaveTurn(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, msg)
}

// SessionHistory godoc
// GET /api/chat/history/:session_id
// Returns the persisted turns of one conversation.
func (h *VoiceHandler) SessionHistory(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	messages, err := h.voiceService.SessionHistory(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}

// UserHistory godoc
// GET /api/chat/history?limit=
// Returns the user's recent turns across sessions.
func (h *VoiceHandler) UserHistory(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := h.voiceService.UserHistory(c.Request.Context(), *userID, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}

// SummarizeTranscript godoc
// POST /api/summarize-transcript
// Condenses a spoken transcript into study notes.
func (h *VoiceHandler) SummarizeTranscript(c *gin.Context) {
	var req struct {
		Transcript string `json:"transcript" binding:"required,min=1"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	summary, err := h.voiceService.SummarizeTranscript(c.Request.Context(), req.Transcript)
	if err != nil {
		if errors.Is(err, service.ErrLLMUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrGenerationFailed)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"summary": sanitize.DisplayString(summary)})
}
