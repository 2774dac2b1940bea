package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminalearn/lumina-backend/internal/model"
)

// CommunityRepository handles discussion board data access.
type CommunityRepository struct {
	pool *pgxpool.Pool
}

// NewCommunityRepository creates a new CommunityRepository.
func NewCommunityRepository(pool *pgxpool.Pool) *CommunityRepository {
	return &CommunityRepository{pool: pool}
}

// CreateTopic inserts a thread and returns the generated fields.
func (r *CommunityRepository) CreateTopic(ctx context.Context, t *model.CommunityTopic) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO community_topics (user_id, title, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		t.UserID, t.Title, t.Content,
	).Scan(&t.ID, &t.CreatedAt)
}

// ListTopics retrieves threads newest first with author names and comment counts.
func (r *CommunityRepository) ListTopics(ctx context.Context, page, limit int) ([]model.CommunityTopic, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM community_topics`,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.user_id, u.name, t.title, t.content, t.created_at,
		        (SELECT COUNT(*) FROM community_comments c WHERE c.topic_id = t.id)
		 FROM community_topics t
		 JOIN users u ON u.id = t.user_id
		 ORDER BY t.created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var topics []model.CommunityTopic
	for rows.Next() {
		var t model.CommunityTopic
		if err := rows.Scan(&t.ID, &t.UserID, &t.AuthorName, &t.Title,
			&t.Content, &t.CreatedAt, &t.CommentCount); err != nil {
			return nil, 0, err
		}
		topics = append(topics, t)
	}
	return topics, total, rows.Err()
}

// GetTopic retrieves one thread with its comments oldest first.
func (r *CommunityRepository) GetTopic(ctx context.Context, id int) (*model.CommunityTopic, error) {
	t := &model.CommunityTopic{}
	err := r.pool.QueryRow(ctx,
		`SELECT t.id, t.user_id, u.name, t.title, t.content, t.created_at
		 FROM community_topics t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.id = $1`, id,
	).Scan(&t.ID, &t.UserID, &t.AuthorName, &t.Title, &t.Content, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.topic_id, c.user_id, u.name, c.content, c.created_at
		 FROM community_comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.topic_id = $1
		 ORDER BY c.created_at ASC`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.CommunityComment
		if err := rows.Scan(&c.ID, &c.TopicID, &c.UserID, &c.AuthorName,
			&c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		t.Comments = append(t.Comments, c)
	}
	t.CommentCount = len(t.Comments)
	return t, rows.Err()
}

// DeleteTopic removes a thread. Comments go with it via the FK cascade.
func (r *CommunityRepository) DeleteTopic(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM community_topics WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CreateComment inserts a reply, checking the thread exists.
func (r *CommunityRepository) CreateComment(ctx context.Context, c *model.CommunityComment) error {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM community_topics WHERE id = $1)`, c.TopicID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("topic %d not found", c.TopicID)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO community_comments (topic_id, user_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.TopicID, c.UserID, c.Content,
	).Scan(&c.ID, &c.CreatedAt)
}
