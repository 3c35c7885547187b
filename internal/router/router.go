package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/audit"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/handler"
	"github.com/stemsi/qbank-backend/internal/middleware"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Question *handler.QuestionHandler
	WS       *handler.WSHandler
	System   *handler.SystemHandler
}

// Middlewares groups the stateful middleware dependencies.
type Middlewares struct {
	Log         zerolog.Logger
	AuditSink   audit.Sink
	VoteLimiter *middleware.VoteRateLimiter
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	mw *Middlewares,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	if mw == nil {
		mw = &Middlewares{}
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware(mw.Log), middleware.AccessLog())

	// Audit wraps everything below it, including auth failures.
	if mw.AuditSink != nil {
		router.Use(middleware.AuditLog(mw.AuditSink, cfg.AuditSensitivePaths))
	}

	router.GET("/health", handlers.System.Health)

	// ─── 1. Question API (JWT + permissions) ───────────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireAuth(authService),
		middleware.NoStore(),
		middleware.Brotli(5),
	)
	{
		questions := api.Group("/questions")
		questions.GET("",
			middleware.RequirePermission(model.PermissionQuestionsRead),
			handlers.Question.ListQuestions,
		)
		questions.POST("",
			middleware.RequirePermission(model.PermissionQuestionsWrite),
			handlers.Question.CreateQuestion,
		)
		questions.GET("/:id",
			middleware.RequirePermission(model.PermissionQuestionsRead),
			handlers.Question.GetQuestion,
		)
		// Author-or-moderator is decided by the service.
		questions.PUT("/:id",
			middleware.RequirePermission(model.PermissionQuestionsRead),
			handlers.Question.UpdateQuestion,
		)
		questions.DELETE("/:id",
			middleware.RequirePermission(model.PermissionQuestionsRead),
			handlers.Question.DeleteQuestion,
		)

		voteChain := []gin.HandlerFunc{middleware.RequirePermission(model.PermissionQuestionsRead)}
		if mw.VoteLimiter != nil {
			voteChain = append(voteChain, mw.VoteLimiter.Middleware())
		}
		voteChain = append(voteChain, handlers.Question.VoteQuestion)
		questions.POST("/:id/vote", voteChain...)

		questions.POST("/:id/invalidate",
			middleware.RequirePermission(model.PermissionQuestionsReview),
			handlers.Question.InvalidateQuestion,
		)

		api.GET("/system/stats",
			middleware.RequirePermission(model.PermissionQuestionsModerate),
			handlers.System.Stats,
		)
	}

	// ─── 2. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAuth(authService))
	{
		ws.GET("/questions/:id/votes",
			middleware.RequirePermission(model.PermissionQuestionsRead),
			handlers.WS.VoteTallyStream,
		)
	}

	return router
}
