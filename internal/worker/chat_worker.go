package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/luminalearn/lumina-backend/internal/config"
)

// ChatWorker consumes persist_chats_queue and inserts conversation turns
// into PostgreSQL.
type ChatWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewChatWorker creates a new ChatWorker.
func NewChatWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ChatWorker {
	return &ChatWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "chat_worker").Logger(),
	}
}

type chatPayload struct {
	UserID      *int   `json:"user_id"`
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
	AIResponse  string `json:"ai_response"`
	Context     string `json:"context"`
	Timestamp   int64  `json:"timestamp"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ChatWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ChatWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistChatsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload chatPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistTurn(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("session_id", payload.SessionID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistChatsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *ChatWorker) persistTurn(ctx context.Context, p *chatPayload) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO chat_messages (user_id, session_id, user_message, ai_response, context, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.UserID, p.SessionID, p.UserMessage, p.AIResponse, p.Context, time.Unix(p.Timestamp, 0),
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *ChatWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistChatsQueue).Result()
		if err != nil {
			break
		}

		var payload chatPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistTurn(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistChatsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
