package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates proctored quiz attempt states.
type AttemptStatus string

const (
	AttemptStatusActive       AttemptStatus = "ACTIVE"
	AttemptStatusSubmitted    AttemptStatus = "SUBMITTED"
	AttemptStatusDisqualified AttemptStatus = "DISQUALIFIED"
)

// QuizAttempt is a persisted proctored attempt. The live state machine is
// internal/proctor; this record is its durable shadow.
type QuizAttempt struct {
	ID             uuid.UUID     `json:"id"`
	UserID         int           `json:"user_id"`
	QuizTitle      string        `json:"quiz_title"`
	QuestionCount  int           `json:"question_count"`
	Status         AttemptStatus `json:"status"`
	TabSwitchCount int           `json:"tab_switch_count"`
	ElapsedMs      int64         `json:"elapsed_ms"`
	FinalScore     *float64      `json:"final_score,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
}

// StartAttemptRequest opens a proctored attempt for a generated quiz.
type StartAttemptRequest struct {
	QuizTitle string     `json:"quizTitle" binding:"omitempty,max=500"`
	Questions []Question `json:"questions" binding:"required,min=1,dive"`
}
