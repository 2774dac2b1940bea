package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminalearn/lumina-backend/internal/model"
)

// ChatRepository handles saved conversation data access.
type ChatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// Create inserts one conversation turn.
func (r *ChatRepository) Create(ctx context.Context, m *model.ChatMessage) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO chat_messages (user_id, session_id, user_message, ai_response, context)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		m.UserID, m.SessionID, m.UserMessage, m.AIResponse, m.Context,
	).Scan(&m.ID, &m.CreatedAt)
}

// ListBySession retrieves all turns of one conversation, oldest first.
func (r *ChatRepository) ListBySession(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, user_message, ai_response, context, created_at
		 FROM chat_messages
		 WHERE session_id = $1
		 ORDER BY created_at ASC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChatMessages(rows)
}

// ListByUser retrieves a user's recent turns across sessions, newest first.
func (r *ChatRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.ChatMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, user_message, ai_response, context, created_at
		 FROM chat_messages
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChatMessages(rows)
}

// CountByUser returns how many turns a user has saved, grouped by context.
func (r *ChatRepository) CountByUser(ctx context.Context, userID int) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT COALESCE(context, ''), COUNT(*)
		 FROM chat_messages
		 WHERE user_id = $1
		 GROUP BY context`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var context string
		var count int
		if err := rows.Scan(&context, &count); err != nil {
			return nil, err
		}
		counts[context] = count
	}
	return counts, rows.Err()
}

type chatRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanChatMessages(rows chatRows) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.SessionID, &m.UserMessage,
			&m.AIResponse, &m.Context, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
