package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/luminalearn/lumina-backend/internal/config"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/proctor"
	"github.com/luminalearn/lumina-backend/internal/repository"
)

// Attempt errors.
var (
	ErrNotAttemptOwner = errors.New("attempt belongs to another user")
	ErrAttemptTerminal = errors.New("attempt is already finished")
)

// attemptDataTTL bounds how long an abandoned attempt's questions and
// autosaved answers live in Redis.
const attemptDataTTL = 24 * time.Hour

// violationPayload is the queue entry consumed by the violation worker.
type violationPayload struct {
	AttemptID string `json:"attempt_id"`
	UserID    int    `json:"user_id"`
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
	Timestamp int64  `json:"timestamp"`
}

// scorePayload is the queue entry consumed by the score worker.
type scorePayload struct {
	AttemptID      string  `json:"attempt_id"`
	Score          float64 `json:"score"`
	TabSwitchCount int     `json:"tab_switch_count"`
	ElapsedMs      int64   `json:"elapsed_ms"`
}

// AttemptService is the durable side of proctored attempts. The live state
// machine is internal/proctor; this service persists its lifecycle and
// streams violations and scores through Redis queues.
type AttemptService struct {
	attemptRepo *repository.AttemptRepository
	rdb         *redis.Client
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(attemptRepo *repository.AttemptRepository, rdb *redis.Client) *AttemptService {
	return &AttemptService{attemptRepo: attemptRepo, rdb: rdb}
}

// Start opens an attempt: a DB row plus the question set and start time in
// Redis so the stream handler can rebuild state after a reconnect.
func (s *AttemptService) Start(ctx context.Context, userID int, req *model.StartAttemptRequest) (*model.QuizAttempt, error) {
	title := req.QuizTitle
	if title == "" {
		title = "Untitled Quiz"
	}

	attempt := &model.QuizAttempt{
		UserID:        userID,
		QuizTitle:     title,
		QuestionCount: len(req.Questions),
		Status:        model.AttemptStatusActive,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	questions, err := json.Marshal(req.Questions)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	id := attempt.ID.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.AttemptQuestionsKey(id), questions, attemptDataTTL)
	pipe.Set(ctx, config.CacheKey.AttemptStartKey(id), attempt.StartedAt.Unix(), attemptDataTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("cache attempt data: %w", err)
	}
	return attempt, nil
}

// Get retrieves an attempt, enforcing ownership.
func (s *AttemptService) Get(ctx context.Context, userID int, id uuid.UUID) (*model.QuizAttempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, ErrNotAttemptOwner
	}
	return attempt, nil
}

// List retrieves a user's attempts, newest first.
func (s *AttemptService) List(ctx context.Context, userID int) ([]model.QuizAttempt, error) {
	return s.attemptRepo.ListByUser(ctx, userID)
}

// Questions loads the cached question set of an attempt.
func (s *AttemptService) Questions(ctx context.Context, attemptID uuid.UUID) ([]model.Question, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.AttemptQuestionsKey(attemptID.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrAttemptTerminal
		}
		return nil, fmt.Errorf("load questions: %w", err)
	}
	var questions []model.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return questions, nil
}

// SaveAnswer autosaves one answer choice keyed by question index.
func (s *AttemptService) SaveAnswer(ctx context.Context, attemptID uuid.UUID, questionIndex, optionIndex int) error {
	key := config.CacheKey.AttemptAnswersKey(attemptID.String())
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, strconv.Itoa(questionIndex), optionIndex)
	pipe.Expire(ctx, key, attemptDataTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// SavedAnswers loads the autosaved answer sheet for a reconnect.
func (s *AttemptService) SavedAnswers(ctx context.Context, attemptID uuid.UUID) (map[int]int, error) {
	raw, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(attemptID.String())).Result()
	if err != nil {
		return nil, err
	}
	answers := make(map[int]int, len(raw))
	for k, v := range raw {
		qi, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		oi, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		answers[qi] = oi
	}
	return answers, nil
}

// RecordViolationCount stores the attempt's running violation count so a
// reconnect resumes with the same allowance instead of a fresh one.
func (s *AttemptService) RecordViolationCount(ctx context.Context, attemptID uuid.UUID, count int) error {
	key := config.CacheKey.AttemptViolationsKey(attemptID.String())
	return s.rdb.Set(ctx, key, count, attemptDataTTL).Err()
}

// ViolationCount loads the stored violation count; zero when none recorded.
func (s *AttemptService) ViolationCount(ctx context.Context, attemptID uuid.UUID) (int, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.AttemptViolationsKey(attemptID.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("decode violation count: %w", err)
	}
	return count, nil
}

// QueueViolation pushes a proctoring event onto the persistence queue. The
// violation worker batches these into Postgres.
func (s *AttemptService) QueueViolation(ctx context.Context, attemptID uuid.UUID, userID int, kind string, count int) error {
	payload, err := json.Marshal(violationPayload{
		AttemptID: attemptID.String(),
		UserID:    userID,
		Kind:      kind,
		Count:     count,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, payload).Err()
}

// Disqualify records a terminal disqualification immediately. Unlike scores
// this does not go through the queue: a disqualified attempt must be
// rejected on reconnect even if the worker is behind.
func (s *AttemptService) Disqualify(ctx context.Context, attemptID uuid.UUID, tabSwitchCount int, elapsedMs int64) error {
	return s.attemptRepo.Disqualify(ctx, attemptID, tabSwitchCount, elapsedMs)
}

// PersistSubmission grades a handoff and enqueues the score for the score
// worker. Used as the persist step of proctor.Session.Submit: an error here
// leaves the live session active and resumable.
func (s *AttemptService) PersistSubmission(ctx context.Context, attemptID uuid.UUID, handoff proctor.Handoff) (float64, error) {
	correct := 0
	for i, q := range handoff.Questions {
		if answer, ok := handoff.Answers[i]; ok && answer == q.CorrectAnswer {
			correct++
		}
	}
	score := float64(correct) / float64(len(handoff.Questions)) * 100

	payload, err := json.Marshal(scorePayload{
		AttemptID:      attemptID.String(),
		Score:          roundTenth(score),
		TabSwitchCount: handoff.TabSwitchCount,
		ElapsedMs:      handoff.ElapsedMs,
	})
	if err != nil {
		return 0, err
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, payload).Err(); err != nil {
		return 0, fmt.Errorf("enqueue score: %w", err)
	}
	return roundTenth(score), nil
}
