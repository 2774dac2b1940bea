package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/luminalearn/lumina-backend/internal/config"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/repository"
)

const (
	ScoreBatchSize    = 50
	ScoreBatchTimeout = 2 * time.Second
	ScorePollTimeout  = 1 * time.Second
)

// ScoreWorker finalizes submitted attempts: it drains the score queue,
// marks attempts SUBMITTED in Postgres, and clears their Redis working set.
type ScoreWorker struct {
	pool     *pgxpool.Pool
	rdb      *redis.Client
	attempts *repository.AttemptRepository
	log      zerolog.Logger
}

func NewScoreWorker(pool *pgxpool.Pool, rdb *redis.Client, attempts *repository.AttemptRepository, log zerolog.Logger) *ScoreWorker {
	return &ScoreWorker{
		pool:     pool,
		rdb:      rdb,
		attempts: attempts,
		log:      log.With().Str("component", "score_worker").Logger(),
	}
}

type scorePayload struct {
	AttemptID      string  `json:"attempt_id"`
	Score          float64 `json:"score"`
	TabSwitchCount int     `json:"tab_switch_count"`
	ElapsedMs      int64   `json:"elapsed_ms"`
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ScoreWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ScoreWorker started")

	batch := make([]*scorePayload, 0, ScoreBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ScoreBatchSize || time.Since(lastFlush) >= ScoreBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ScorePollTimeout, config.WorkerKey.PersistScoresQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p scorePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// ----------------------------------------------------------------
// Batch Update Wrapper
// ----------------------------------------------------------------

func (w *ScoreWorker) flushSafe(ctx context.Context, batch []*scorePayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkCompleteAttempts(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk attempt update failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, raw)
			}
		}
		return
	}

	// After successful updates → drop the attempts' Redis working sets
	w.bulkClearAttemptState(ctx, batch)
}

// ----------------------------------------------------------------
// BULK PostgreSQL UPDATE using UNNEST + alias
// ----------------------------------------------------------------

func (w *ScoreWorker) bulkCompleteAttempts(ctx context.Context, batch []*scorePayload) error {
	n := len(batch)

	attemptIDs := make([]uuid.UUID, 0, n)
	scores := make([]float64, 0, n)
	tabSwitches := make([]int, 0, n)
	elapsed := make([]int64, 0, n)
	finishedAts := make([]time.Time, n)

	now := time.Now()
	for i, p := range batch {
		aID, err := uuid.Parse(p.AttemptID)
		if err != nil {
			return err
		}
		attemptIDs = append(attemptIDs, aID)
		scores = append(scores, p.Score)
		tabSwitches = append(tabSwitches, p.TabSwitchCount)
		elapsed = append(elapsed, p.ElapsedMs)
		finishedAts[i] = now
	}

	// The status guard keeps a late score from resurrecting an attempt the
	// proctor already disqualified.
	query := `
		UPDATE quiz_attempts AS a
		SET status = '` + string(model.AttemptStatusSubmitted) + `',
		    final_score = t.score,
		    tab_switch_count = t.tab_switch_count,
		    elapsed_ms = t.elapsed_ms,
		    finished_at = t.finished_at
		FROM (
			SELECT
				u.attempt_id,
				u.score,
				u.tab_switch_count,
				u.elapsed_ms,
				u.finished_at
			FROM UNNEST(
				$1::uuid[],
				$2::float8[],
				$3::int[],
				$4::bigint[],
				$5::timestamptz[]
			) AS u (attempt_id, score, tab_switch_count, elapsed_ms, finished_at)
		) AS t
		WHERE a.id = t.attempt_id
		  AND a.status = '` + string(model.AttemptStatusActive) + `'
	`

	_, err := w.pool.Exec(ctx, query, attemptIDs, scores, tabSwitches, elapsed, finishedAts)
	return err
}

// ----------------------------------------------------------------
// BULK Redis DEL for clearing attempt working state
// ----------------------------------------------------------------

func (w *ScoreWorker) bulkClearAttemptState(ctx context.Context, batch []*scorePayload) {
	pipe := w.rdb.Pipeline()

	for _, p := range batch {
		pipe.Del(ctx, config.CacheKey.AttemptQuestionsKey(p.AttemptID))
		pipe.Del(ctx, config.CacheKey.AttemptAnswersKey(p.AttemptID))
		pipe.Del(ctx, config.CacheKey.AttemptViolationsKey(p.AttemptID))
		pipe.Del(ctx, config.CacheKey.AttemptStartKey(p.AttemptID))
	}

	_, _ = pipe.Exec(ctx)
}

// ----------------------------------------------------------------
// FALLBACK single update
// ----------------------------------------------------------------

func (w *ScoreWorker) persistSingle(ctx context.Context, p *scorePayload) error {
	aID, err := uuid.Parse(p.AttemptID)
	if err != nil {
		return err
	}
	return w.attempts.Complete(ctx, aID, p.Score, p.TabSwitchCount, p.ElapsedMs)
}
