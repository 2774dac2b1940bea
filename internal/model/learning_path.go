package model

import (
	"time"

	"github.com/google/uuid"
)

// LearningPath is a generated study roadmap for one topic.
type LearningPath struct {
	ID            uuid.UUID          `json:"id"`
	UserID        int                `json:"user_id"`
	Topic         string             `json:"topic"`
	Level         string             `json:"level"`
	DurationWeeks int                `json:"duration_weeks"`
	Steps         []LearningPathStep `json:"steps,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// LearningPathStep is one ordered step of a roadmap.
type LearningPathStep struct {
	ID          int       `json:"id"`
	PathID      uuid.UUID `json:"path_id"`
	OrderNum    int       `json:"order_num"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	WeekNumber  int       `json:"week_number"`
	Completed   bool      `json:"completed"`
}

// PlanRequest is the payload for roadmap generation.
type PlanRequest struct {
	Topic         string `json:"topic" binding:"required,min=2,max=255"`
	Level         string `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	DurationWeeks int    `json:"durationWeeks" binding:"omitempty,min=1,max=52"`
}

// StepProgressRequest toggles completion on one step.
type StepProgressRequest struct {
	Completed bool `json:"completed"`
}
