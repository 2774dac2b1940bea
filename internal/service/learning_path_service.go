package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/luminalearn/lumina-backend/internal/llm"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/repository"
)

// ErrNotPathOwner is returned when a user touches someone else's roadmap.
var ErrNotPathOwner = errors.New("learning path belongs to another user")

const defaultDurationWeeks = 4

// LearningPathService generates and tracks study roadmaps.
type LearningPathService struct {
	llm      *llm.Client
	pathRepo *repository.LearningPathRepository
}

// NewLearningPathService creates a new LearningPathService.
func NewLearningPathService(client *llm.Client, pathRepo *repository.LearningPathRepository) *LearningPathService {
	return &LearningPathService{llm: client, pathRepo: pathRepo}
}

// Plan generates a roadmap for a topic and persists it. Without an LLM a
// generic week-by-week template is used so the feature stays usable.
func (s *LearningPathService) Plan(ctx context.Context, userID int, req *model.PlanRequest) (*model.LearningPath, error) {
	level := req.Level
	if level == "" {
		level = "beginner"
	}
	weeks := req.DurationWeeks
	if weeks <= 0 {
		weeks = defaultDurationWeeks
	}

	var steps []model.LearningPathStep
	if s.llm.Enabled() {
		generated, err := s.generateSteps(ctx, req.Topic, level, weeks)
		if err != nil {
			log.Warn().Err(err).Str("topic", req.Topic).Msg("llm roadmap generation failed, using template")
		} else {
			steps = generated
		}
	}
	if len(steps) == 0 {
		steps = templateSteps(req.Topic, weeks)
	}

	path := &model.LearningPath{
		UserID:        userID,
		Topic:         req.Topic,
		Level:         level,
		DurationWeeks: weeks,
		Steps:         steps,
	}
	if err := s.pathRepo.Create(ctx, path); err != nil {
		return nil, fmt.Errorf("save learning path: %w", err)
	}
	return path, nil
}

// Get returns one roadmap with its steps, enforcing ownership.
func (s *LearningPathService) Get(ctx context.Context, userID int, pathID uuid.UUID) (*model.LearningPath, error) {
	path, err := s.pathRepo.GetByID(ctx, pathID)
	if err != nil {
		return nil, err
	}
	if path.UserID != userID {
		return nil, ErrNotPathOwner
	}
	return path, nil
}

// List returns a user's roadmaps without steps.
func (s *LearningPathService) List(ctx context.Context, userID int) ([]model.LearningPath, error) {
	return s.pathRepo.ListByUser(ctx, userID)
}

// SetStepCompleted toggles one step's completion, enforcing ownership.
func (s *LearningPathService) SetStepCompleted(ctx context.Context, userID int, pathID uuid.UUID, stepID int, completed bool) error {
	path, err := s.pathRepo.GetByID(ctx, pathID)
	if err != nil {
		return err
	}
	if path.UserID != userID {
		return ErrNotPathOwner
	}
	return s.pathRepo.SetStepCompleted(ctx, pathID, stepID, completed)
}

func (s *LearningPathService) generateSteps(ctx context.Context, topic, level string, weeks int) ([]model.LearningPathStep, error) {
	system := fmt.Sprintf(`You are a curriculum designer. Build a %d-week study roadmap for a %s learner.
Output strict JSON only: {"steps":[{"title":"...","description":"...","week":1}]}
Rules:
- 2 to 4 steps per week, ordered from fundamentals to advanced material.
- Titles under 80 characters, descriptions one or two sentences.
- Every step names concrete material to study or practice, no filler.`, weeks, level)

	raw, err := s.llm.CompleteJSON(ctx, system, "Topic: "+topic)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Steps []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Week        int    `json:"week"`
		} `json:"steps"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode roadmap json: %w", err)
	}

	steps := make([]model.LearningPathStep, 0, len(parsed.Steps))
	for i, st := range parsed.Steps {
		if st.Title == "" {
			continue
		}
		week := st.Week
		if week < 1 {
			week = 1
		} else if week > weeks {
			week = weeks
		}
		steps = append(steps, model.LearningPathStep{
			OrderNum:    i + 1,
			Title:       st.Title,
			Description: st.Description,
			WeekNumber:  week,
		})
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no valid steps in roadmap response")
	}
	return steps, nil
}

// templateSteps is the offline fallback: one study/practice pair per week.
func templateSteps(topic string, weeks int) []model.LearningPathStep {
	steps := make([]model.LearningPathStep, 0, weeks*2)
	for w := 1; w <= weeks; w++ {
		steps = append(steps,
			model.LearningPathStep{
				OrderNum:    len(steps) + 1,
				Title:       fmt.Sprintf("Week %d: study core material on %s", w, topic),
				Description: fmt.Sprintf("Read or watch foundational material on %s and take notes.", topic),
				WeekNumber:  w,
			},
			model.LearningPathStep{
				OrderNum:    len(steps) + 2,
				Title:       fmt.Sprintf("Week %d: practice and self-test", w),
				Description: "Do exercises on what you studied this week and quiz yourself on weak spots.",
				WeekNumber:  w,
			},
		)
	}
	return steps
}
