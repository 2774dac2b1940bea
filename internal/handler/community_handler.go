package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/luminalearn/lumina-backend/internal/middleware"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/response"
	"github.com/luminalearn/lumina-backend/internal/service"
	"github.com/luminalearn/lumina-backend/internal/validator"
)

// CommunityHandler handles the discussion board endpoints.
type CommunityHandler struct {
	communityService *service.CommunityService
	authService      *service.AuthService
}

// NewCommunityHandler creates a new CommunityHandler.
func NewCommunityHandler(communityService *service.CommunityService, authService *service.AuthService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService, authService: authService}
}

// ListTopics godoc
// GET /api/community/topics?page=&limit=
func (h *CommunityHandler) ListTopics(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	topics, total, err := h.communityService.ListTopics(c.Request.Context(), page, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	response.SuccessWithPagination(c, http.StatusOK, topics, response.NewPagination(page, limit, int64(total)))
}

// CreateTopic godoc
// POST /api/community/topics
func (h *CommunityHandler) CreateTopic(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateTopicRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	topic, err := h.communityService.CreateTopic(c.Request.Context(), *userID, h.authorName(c, *userID), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, topic)
}

// GetTopic godoc
// GET /api/community/topics/:topic_id
func (h *CommunityHandler) GetTopic(c *gin.Context) {
	topicID, err := strconv.Atoi(c.Param("topic_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	topic, err := h.communityService.GetTopic(c.Request.Context(), topicID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, topic)
}

// DeleteTopic godoc
// DELETE /api/community/topics/:topic_id
func (h *CommunityHandler) DeleteTopic(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	topicID, err := strconv.Atoi(c.Param("topic_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.communityService.DeleteTopic(c.Request.Context(), topicID, *userID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotTopicOwner):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// AddComment godoc
// POST /api/community/topics/:topic_id/comments
func (h *CommunityHandler) AddComment(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	topicID, err := strconv.Atoi(c.Param("topic_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateCommentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	comment, err := h.communityService.AddComment(c.Request.Context(), topicID, *userID, h.authorName(c, *userID), &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusCreated, comment)
}

// authorName resolves the display name: claims when authenticated by JWT,
// otherwise a DB lookup for header-identified users.
func (h *CommunityHandler) authorName(c *gin.Context, userID int) string {
	if claims := middleware.GetClaims(c); claims != nil && claims.Name != "" {
		return claims.Name
	}
	if user, err := h.authService.GetUser(c.Request.Context(), userID); err == nil {
		return user.Name
	}
	return "Learner"
}
