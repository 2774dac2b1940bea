package model

import (
	"encoding/json"
	"time"
)

// Question is a single multiple-choice quiz item. CorrectAnswer is the index
// into Options and is never sent to the client before scoring.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Topic         string   `json:"topic,omitempty"`
}

// GenerateQuizRequest is the JSON payload for text-based quiz generation.
// PDF uploads use multipart form fields (pdf, numQuestions) instead.
type GenerateQuizRequest struct {
	Text         string `json:"text" binding:"required,min=1"`
	NumQuestions int    `json:"numQuestions" binding:"omitempty,min=1,max=25"`
}

// GeneratedQuiz is the response for /api/generate-quiz.
type GeneratedQuiz struct {
	Title string     `json:"title"`
	Items []Question `json:"items"`
}

// SecurityData carries the proctoring handoff recorded client-side during
// the attempt. It is persisted alongside the score for review.
type SecurityData struct {
	TabSwitchCount int   `json:"tabSwitchCount"`
	TimeSpent      int64 `json:"timeSpent"`
	IsFullscreen   bool  `json:"isFullscreen"`
}

// SubmitQuizRequest is the payload for scoring an attempt. Answers maps a
// question ID to the selected option index.
type SubmitQuizRequest struct {
	Questions    []Question     `json:"questions" binding:"required,min=1,dive"`
	Answers      map[string]int `json:"answers" binding:"required"`
	QuizTitle    string         `json:"quizTitle" binding:"omitempty,max=500"`
	SessionID    string         `json:"sessionId" binding:"omitempty,max=255"`
	SecurityData *SecurityData  `json:"securityData" binding:"omitempty"`
}

// QuestionResult is the per-question scoring outcome.
type QuestionResult struct {
	QuestionID    string   `json:"questionId"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	UserAnswer    *int     `json:"userAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
	Topic         string   `json:"topic"`
}

// Score summarizes a scored submission.
type Score struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// SubmitQuizResponse is the response for /api/submit-quiz.
type SubmitQuizResponse struct {
	Score       Score            `json:"score"`
	Results     []QuestionResult `json:"results"`
	SessionID   string           `json:"sessionId,omitempty"`
	QuizScoreID int              `json:"quizScoreId,omitempty"`
}

// QuizScore is a persisted scoring record.
type QuizScore struct {
	ID              int             `json:"id"`
	UserID          *int            `json:"user_id,omitempty"`
	SessionID       *string         `json:"session_id,omitempty"`
	QuizTitle       string          `json:"quiz_title"`
	TotalQuestions  int             `json:"total_questions"`
	CorrectAnswers  int             `json:"correct_answers"`
	ScorePercentage float64         `json:"score_percentage"`
	AnswersData     json.RawMessage `json:"answers_data,omitempty"`
	TabSwitchCount  int             `json:"tab_switch_count"`
	TimeSpentMs     int64           `json:"time_spent_ms"`
	CreatedAt       time.Time       `json:"created_at"`
}
