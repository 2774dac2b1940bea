package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalyticsRepository runs the aggregate queries behind the dashboard.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// QuizTotals returns the count and average percentage of a user's scores.
func (r *AnalyticsRepository) QuizTotals(ctx context.Context, userID int) (int, float64, error) {
	var count int
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(score_percentage), 0)
		 FROM quiz_scores
		 WHERE user_id = $1`, userID,
	).Scan(&count, &avg)
	return count, avg, err
}

// ActivityDays returns the distinct calendar days with any quiz or chat
// activity, newest first. Used for streak computation.
func (r *AnalyticsRepository) ActivityDays(ctx context.Context, userID int) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT day FROM (
		   SELECT DATE(created_at) AS day FROM quiz_scores WHERE user_id = $1
		   UNION
		   SELECT DATE(created_at) AS day FROM chat_messages WHERE user_id = $1
		 ) activity
		 ORDER BY day DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
