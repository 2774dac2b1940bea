package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminalearn/lumina-backend/internal/model"
)

// LearningPathRepository handles roadmap data access.
type LearningPathRepository struct {
	pool *pgxpool.Pool
}

// NewLearningPathRepository creates a new LearningPathRepository.
func NewLearningPathRepository(pool *pgxpool.Pool) *LearningPathRepository {
	return &LearningPathRepository{pool: pool}
}

// Create inserts a path and its ordered steps in one transaction.
func (r *LearningPathRepository) Create(ctx context.Context, p *model.LearningPath) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO learning_paths (user_id, topic, level, duration_weeks)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		p.UserID, p.Topic, p.Level, p.DurationWeeks,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert path: %w", err)
	}

	for i := range p.Steps {
		step := &p.Steps[i]
		step.PathID = p.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO learning_path_steps (path_id, order_num, title, description, week_number)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			p.ID, step.OrderNum, step.Title, step.Description, step.WeekNumber,
		).Scan(&step.ID)
		if err != nil {
			return fmt.Errorf("insert step %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a path with its steps in order.
func (r *LearningPathRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LearningPath, error) {
	p := &model.LearningPath{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, topic, level, duration_weeks, created_at
		 FROM learning_paths
		 WHERE id = $1`, id,
	).Scan(&p.ID, &p.UserID, &p.Topic, &p.Level, &p.DurationWeeks, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, path_id, order_num, title, description, week_number, completed
		 FROM learning_path_steps
		 WHERE path_id = $1
		 ORDER BY order_num ASC`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.LearningPathStep
		if err := rows.Scan(&s.ID, &s.PathID, &s.OrderNum, &s.Title,
			&s.Description, &s.WeekNumber, &s.Completed); err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, s)
	}
	return p, rows.Err()
}

// ListByUser retrieves a user's paths, newest first, without steps.
func (r *LearningPathRepository) ListByUser(ctx context.Context, userID int) ([]model.LearningPath, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, topic, level, duration_weeks, created_at
		 FROM learning_paths
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []model.LearningPath
	for rows.Next() {
		var p model.LearningPath
		if err := rows.Scan(&p.ID, &p.UserID, &p.Topic, &p.Level,
			&p.DurationWeeks, &p.CreatedAt); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// SetStepCompleted toggles completion on a step scoped to its path.
func (r *LearningPathRepository) SetStepCompleted(ctx context.Context, pathID uuid.UUID, stepID int, completed bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE learning_path_steps
		 SET completed = $1
		 WHERE id = $2 AND path_id = $3`,
		completed, stepID, pathID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("step %d not found in path %s", stepID, pathID)
	}
	return nil
}
