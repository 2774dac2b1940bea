package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/luminalearn/lumina-backend/internal/config"
	"github.com/luminalearn/lumina-backend/internal/handler"
	"github.com/luminalearn/lumina-backend/internal/middleware"
	"github.com/luminalearn/lumina-backend/internal/response"
	"github.com/luminalearn/lumina-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Quiz         *handler.QuizHandler
	Attempt      *handler.AttemptHandler
	Voice        *handler.VoiceHandler
	Analytics    *handler.AnalyticsHandler
	LearningPath *handler.LearningPathHandler
	Feynman      *handler.FeynmanHandler
	Community    *handler.CommunityHandler
	WS           *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-User-Id"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/api/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/auth")
	auth.Use(authLimiter.Middleware(), middleware.NoStore())
	{
		auth.POST("/signup", handlers.Auth.Signup)
		auth.POST("/verify-code", handlers.Auth.VerifyCode)
		auth.POST("/resend-code", handlers.Auth.ResendCode)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/forgot-password", handlers.Auth.ForgotPassword)
		auth.POST("/reset-password", handlers.Auth.ResetPassword)

		// Authenticated profile routes
		auth.GET("/me",
			middleware.RequireJWT(authService),
			middleware.CheckSingleDeviceSession(authService),
			handlers.Auth.Me,
		)
		auth.POST("/logout",
			middleware.RequireJWT(authService),
			handlers.Auth.Logout,
		)
	}

	// ─── 2. Learning Group (Identified: JWT or X-User-Id) ──────────────
	// These endpoints accept anonymous use where the feature allows it;
	// handlers that need a user reject requests without one.
	api := router.Group("/api")
	api.Use(middleware.Identify(authService))
	{
		// Quiz generation and scoring
		api.POST("/generate-quiz", handlers.Quiz.Generate)
		api.POST("/submit-quiz", handlers.Quiz.Submit)
		api.GET("/quiz-history", middleware.RequireUser(), handlers.Quiz.History)

		// Voice Q&A, TTS, and saved conversations
		api.POST("/voice-qa", handlers.Voice.Ask)
		api.POST("/tts", handlers.Voice.Synthesize)
		api.POST("/summarize-transcript", handlers.Voice.SummarizeTranscript)
		api.POST("/chat/save", handlers.Voice.SaveChat)
		api.GET("/chat/session/:session_id", handlers.Voice.SessionHistory)
		api.GET("/chat/history", middleware.RequireUser(), handlers.Voice.UserHistory)

		// Dashboard
		api.GET("/analytics/dashboard", middleware.RequireUser(), handlers.Analytics.Dashboard)

		// Learning paths
		api.POST("/learning-path-plan", middleware.RequireUser(), handlers.LearningPath.Plan)
		api.GET("/learning-path", middleware.RequireUser(), handlers.LearningPath.List)
		api.GET("/learning-path/:path_id", middleware.RequireUser(), handlers.LearningPath.Get)
		api.POST("/learning-path/:path_id/steps/:step_id", middleware.RequireUser(), handlers.LearningPath.SetStepProgress)

		// Feynman teach-back
		api.POST("/feynman/start", handlers.Feynman.Start)
		api.POST("/feynman/chat", handlers.Feynman.Chat)
		api.POST("/feynman/evaluate", handlers.Feynman.Evaluate)

		// Community board
		api.GET("/community/topics", handlers.Community.ListTopics)
		api.POST("/community/topics", middleware.RequireUser(), handlers.Community.CreateTopic)
		api.GET("/community/topics/:topic_id", handlers.Community.GetTopic)
		api.DELETE("/community/topics/:topic_id", middleware.RequireUser(), handlers.Community.DeleteTopic)
		api.POST("/community/topics/:topic_id/comments", middleware.RequireUser(), handlers.Community.AddComment)
	}

	// ─── 3. Proctored Attempts (JWT + Single Device) ───────────────────
	attempts := router.Group("/api/quiz-attempts")
	attempts.Use(
		middleware.RequireJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		attempts.POST("", handlers.Attempt.Start)
		attempts.GET("", handlers.Attempt.List)
		attempts.GET("/:attempt_id", handlers.Attempt.Get)
	}

	// ─── 4. WebSocket Group (WS Auth) ──────────────────────────────────
	ws := router.Group("/ws")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/quiz-attempts/:attempt_id/stream", handlers.WS.AttemptStream)
		ws.GET("/voice/stream", handlers.WS.VoiceStream)
	}

	return router
}
