package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminalearn/lumina-backend/internal/model"
)

// AttemptRepository handles proctored quiz attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a new active attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *model.QuizAttempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts (user_id, quiz_title, question_count, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, started_at`,
		a.UserID, a.QuizTitle, a.QuestionCount, model.AttemptStatusActive,
	).Scan(&a.ID, &a.StartedAt)
}

// GetByID retrieves an attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuizAttempt, error) {
	a := &model.QuizAttempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, quiz_title, question_count, status, tab_switch_count,
		        elapsed_ms, final_score, started_at, finished_at
		 FROM quiz_attempts
		 WHERE id = $1`, id,
	).Scan(&a.ID, &a.UserID, &a.QuizTitle, &a.QuestionCount, &a.Status,
		&a.TabSwitchCount, &a.ElapsedMs, &a.FinalScore, &a.StartedAt, &a.FinishedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Complete marks an attempt submitted with its score and security data.
func (r *AttemptRepository) Complete(ctx context.Context, id uuid.UUID, score float64, tabSwitchCount int, elapsedMs int64) error {
	now := time.Now()
	_, err := r.pool.Exec(ctx,
		`UPDATE quiz_attempts
		 SET status = $1, final_score = $2, tab_switch_count = $3,
		     elapsed_ms = $4, finished_at = $5
		 WHERE id = $6 AND status = $7`,
		model.AttemptStatusSubmitted, score, tabSwitchCount, elapsedMs, now,
		id, model.AttemptStatusActive)
	return err
}

// Disqualify marks an attempt disqualified. The status guard makes repeat
// calls no-ops.
func (r *AttemptRepository) Disqualify(ctx context.Context, id uuid.UUID, tabSwitchCount int, elapsedMs int64) error {
	now := time.Now()
	_, err := r.pool.Exec(ctx,
		`UPDATE quiz_attempts
		 SET status = $1, tab_switch_count = $2, elapsed_ms = $3, finished_at = $4
		 WHERE id = $5 AND status = $6`,
		model.AttemptStatusDisqualified, tabSwitchCount, elapsedMs, now,
		id, model.AttemptStatusActive)
	return err
}

// ListByUser retrieves a user's attempts, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID int) ([]model.QuizAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, quiz_title, question_count, status, tab_switch_count,
		        elapsed_ms, final_score, started_at, finished_at
		 FROM quiz_attempts
		 WHERE user_id = $1
		 ORDER BY started_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizTitle, &a.QuestionCount, &a.Status,
			&a.TabSwitchCount, &a.ElapsedMs, &a.FinalScore, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
