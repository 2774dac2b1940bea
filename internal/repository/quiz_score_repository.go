package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminalearn/lumina-backend/internal/model"
)

// QuizScoreRepository handles scored submission data access.
type QuizScoreRepository struct {
	pool *pgxpool.Pool
}

// NewQuizScoreRepository creates a new QuizScoreRepository.
func NewQuizScoreRepository(pool *pgxpool.Pool) *QuizScoreRepository {
	return &QuizScoreRepository{pool: pool}
}

// Create inserts a scored submission record.
func (r *QuizScoreRepository) Create(ctx context.Context, s *model.QuizScore) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_scores
		   (user_id, session_id, quiz_title, total_questions, correct_answers,
		    score_percentage, answers_data, tab_switch_count, time_spent_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		s.UserID, s.SessionID, s.QuizTitle, s.TotalQuestions, s.CorrectAnswers,
		s.ScorePercentage, s.AnswersData, s.TabSwitchCount, s.TimeSpentMs,
	).Scan(&s.ID, &s.CreatedAt)
}

// ListByUser retrieves a user's scores, newest first, with pagination.
func (r *QuizScoreRepository) ListByUser(ctx context.Context, userID, page, perPage int) ([]model.QuizScore, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_scores WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, quiz_title, total_questions, correct_answers,
		        score_percentage, answers_data, tab_switch_count, time_spent_ms, created_at
		 FROM quiz_scores
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, userID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var scores []model.QuizScore
	for rows.Next() {
		var s model.QuizScore
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.SessionID, &s.QuizTitle, &s.TotalQuestions,
			&s.CorrectAnswers, &s.ScorePercentage, &s.AnswersData,
			&s.TabSwitchCount, &s.TimeSpentMs, &s.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		scores = append(scores, s)
	}
	return scores, total, rows.Err()
}

// ListRecentByUser retrieves up to limit scores for analytics aggregation.
func (r *QuizScoreRepository) ListRecentByUser(ctx context.Context, userID, limit int) ([]model.QuizScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, quiz_title, total_questions, correct_answers,
		        score_percentage, answers_data, tab_switch_count, time_spent_ms, created_at
		 FROM quiz_scores
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []model.QuizScore
	for rows.Next() {
		var s model.QuizScore
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.SessionID, &s.QuizTitle, &s.TotalQuestions,
			&s.CorrectAnswers, &s.ScorePercentage, &s.AnswersData,
			&s.TabSwitchCount, &s.TimeSpentMs, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
