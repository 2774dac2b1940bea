package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/luminalearn/lumina-backend/internal/config"
	"github.com/luminalearn/lumina-backend/internal/database"
	"github.com/luminalearn/lumina-backend/internal/handler"
	"github.com/luminalearn/lumina-backend/internal/llm"
	"github.com/luminalearn/lumina-backend/internal/logger"
	"github.com/luminalearn/lumina-backend/internal/mailer"
	"github.com/luminalearn/lumina-backend/internal/repository"
	"github.com/luminalearn/lumina-backend/internal/router"
	"github.com/luminalearn/lumina-backend/internal/service"
	"github.com/luminalearn/lumina-backend/internal/validator"
	"github.com/luminalearn/lumina-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Lumina Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── LLM Client ────────────────────────────────────────────────────
	// Works without an API key; LLM-backed features then degrade to their
	// fallbacks or report unavailability.
	llmClient := llm.NewClient(cfg)
	if !llmClient.Enabled() {
		log.Warn().Msg("LLM_API_KEY not set; quiz generation falls back to extractive mode")
	}

	// ─── Mailer ────────────────────────────────────────────────────────
	mail := mailer.NewMailer(cfg, log)
	if !mail.Enabled() {
		log.Warn().Msg("SMTP not configured; verification codes will be logged, not mailed")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	scoreRepo := repository.NewQuizScoreRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	pathRepo := repository.NewLearningPathRepository(pool)
	communityRepo := repository.NewCommunityRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo, mail)
	quizService := service.NewQuizService(llmClient, scoreRepo)
	attemptService := service.NewAttemptService(attemptRepo, rdb)
	voiceService := service.NewVoiceService(llmClient, rdb, chatRepo)
	pathService := service.NewLearningPathService(llmClient, pathRepo)
	feynmanService := service.NewFeynmanService(llmClient, rdb)
	communityService := service.NewCommunityService(communityRepo)
	analyticsService := service.NewAnalyticsService(analyticsRepo, scoreRepo, chatRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Quiz:         handler.NewQuizHandler(cfg, quizService),
		Attempt:      handler.NewAttemptHandler(attemptService),
		Voice:        handler.NewVoiceHandler(voiceService),
		Analytics:    handler.NewAnalyticsHandler(analyticsService),
		LearningPath: handler.NewLearningPathHandler(pathService),
		Feynman:      handler.NewFeynmanHandler(feynmanService),
		Community:    handler.NewCommunityHandler(communityService, authService),
		WS:           handler.NewWSHandler(cfg, attemptService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	violationWorker := worker.NewViolationWorker(pool, rdb, log)
	scoreWorker := worker.NewScoreWorker(pool, rdb, attemptRepo, log)
	chatWorker := worker.NewChatWorker(pool, rdb, log)

	go violationWorker.Start(workerCtx)
	go scoreWorker.Start(workerCtx)
	go chatWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
