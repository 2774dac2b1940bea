package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/luminalearn/lumina-backend/internal/config"
	"github.com/luminalearn/lumina-backend/internal/middleware"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/response"
	"github.com/luminalearn/lumina-backend/internal/service"
	"github.com/luminalearn/lumina-backend/internal/validator"
)

// QuizHandler handles quiz generation, scoring, and score history.
type QuizHandler struct {
	cfg         *config.Config
	quizService *service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(cfg *config.Config, quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{cfg: cfg, quizService: quizService}
}

// Generate godoc
// POST /api/generate-quiz
// Accepts either JSON {text, numQuestions} or multipart/form-data with a
// "pdf" file and a "numQuestions" field.
func (h *QuizHandler) Generate(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		h.generateFromPDF(c)
		return
	}

	var req model.GenerateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.GenerateFromText(c.Request.Context(), req.Text, req.NumQuestions)
	if err != nil {
		h.failGenerate(c, err)
		return
	}
	response.Success(c, http.StatusOK, quiz)
}

func (h *QuizHandler) generateFromPDF(c *gin.Context) {
	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		return
	}
	if fileHeader.Size > h.cfg.MaxUploadBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}

	numQuestions := 0
	if raw := c.PostForm("numQuestions"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			numQuestions = n
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer file.Close()

	// The PDF reader needs random access, so buffer the upload in memory.
	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	quiz, err := h.quizService.GenerateFromPDF(c.Request.Context(), bytes.NewReader(data), int64(len(data)), numQuestions)
	if err != nil {
		h.failGenerate(c, err)
		return
	}
	response.Success(c, http.StatusOK, quiz)
}

func (h *QuizHandler) failGenerate(c *gin.Context, err error) {
	if errors.Is(err, service.ErrEmptySource) {
		response.Fail(c, http.StatusBadRequest, response.ErrEmptySource)
		return
	}
	log.Error().Err(err).Msg("quiz generation failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrGenerationFailed)
}

// Submit godoc
// POST /api/submit-quiz
// Scores an answer sheet and persists the result. Works for anonymous
// sessions too; a resolved user links the score to their account.
func (h *QuizHandler) Submit(c *gin.Context) {
	var req model.SubmitQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.quizService.Submit(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrIncompleteAnswers) {
			response.Fail(c, http.StatusBadRequest, response.ErrIncompleteAnswers)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// History godoc
// GET /api/quiz-scores?page=&per_page=
// Returns the user's scored submissions, newest first.
func (h *QuizHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, perPage := paginationParams(c)
	scores, total, err := h.quizService.History(c.Request.Context(), *userID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, scores, response.NewPagination(page, perPage, total))
}

// paginationParams reads page/per_page query params with sane bounds.
func paginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
