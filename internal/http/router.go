// Package httpapi mounts the middleware chain and the JSON endpoints on a
// Gin engine. Order matters: tracing first so every span covers the whole
// request, then correlation id, identity, access log and recovery, so that
// panics and errors are logged with both ids.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/antiscam-chat-backend/internal/config"
	"github.com/tbourn/antiscam-chat-backend/internal/detect"
	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/http/handlers"
	"github.com/tbourn/antiscam-chat-backend/internal/http/middleware"
	"github.com/tbourn/antiscam-chat-backend/internal/repo"
	"github.com/tbourn/antiscam-chat-backend/internal/services"
)

// conversationRepoShim satisfies services.ConversationRepo with the repo
// package's free functions.
type conversationRepoShim struct{}

func (conversationRepoShim) CreateConversation(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, db, userID, title)
}

func (conversationRepoShim) ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, db, userID)
}

func (conversationRepoShim) GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	return repo.GetConversation(ctx, db, id, userID)
}

func (conversationRepoShim) UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateConversationTitle(ctx, db, id, userID, title)
}

func (conversationRepoShim) CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountConversations(ctx, db, userID)
}

func (conversationRepoShim) ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	return repo.ListConversationsPage(ctx, db, userID, offset, limit)
}

// Deps are the long-lived components the routes are built from.
type Deps struct {
	DB        *gorm.DB
	Assistant *services.Assistant
	Scam      detect.ScamDetector
	Usage     handlers.UsageAdmin
	Abuse     handlers.AbuseAdmin
}

// bodyLimit caps request bodies; messages are a few KiB at most.
const bodyLimit = 1 << 20

// RegisterRoutes installs the middleware chain and every endpoint on r.
func RegisterRoutes(r *gin.Engine, cfg config.Config, d Deps) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.UserIdentity())
	r.Use(middleware.AccessLog(middleware.RedactOptions{MaskHeaders: []string{"X-API-Key"}}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(bodyLimit))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Idempotency runs before the edge limiter so replays skip it.
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, conversationID, key string, now time.Time) (bool, error) {
			if conversationID == "" {
				return false, nil
			}
			_, err := repo.GetIdempotency(ctx, d.DB, userID, conversationID, key, now)
			return err == nil, nil
		},
	))
	r.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	convSvc := services.NewConversationService(d.DB, conversationRepoShim{})
	turnSvc := &services.TurnService{
		DB:           d.DB,
		Assistant:    d.Assistant,
		HistoryTurns: cfg.HistoryTurns,
		TitleLocale:  language.TraditionalChinese,
		TitleMaxLen:  20,
	}
	h := handlers.New(handlers.Deps{
		Conversations:   convSvc,
		Turns:           turnSvc,
		Feedback:        &services.FeedbackService{DB: d.DB},
		Assistant:       d.Assistant,
		Scam:            d.Scam,
		Usage:           d.Usage,
		Abuse:           d.Abuse,
		DB:              d.DB,
		Language:        cfg.Language,
		LLMOnly:         cfg.LLMOnly,
		MaxMessageRunes: cfg.MaxMessageRunes,
		IdempotencyTTL:  cfg.IdempotencyTTL,
	})

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/conversations", h.CreateConversation)
		api.GET("/conversations", h.ListConversations)
		api.PUT("/conversations/:id/title", h.UpdateConversationTitle)

		api.GET("/conversations/:id/turns", h.ListTurns)
		api.POST("/conversations/:id/turns", h.PostTurn)

		api.POST("/turns/:id/feedback", h.LeaveFeedback)

		api.POST("/chat", h.Chat)
		api.POST("/scam/analyze", h.AnalyzeScam)
		api.POST("/scam/analyze-image", h.AnalyzeImage)
	}

	admin := api.Group("/admin", middleware.RequireAdminToken(cfg.Security.AdminToken))
	{
		admin.GET("/usage", h.UsageSnapshot)
		admin.GET("/usage/top", h.TopUsers)
		admin.POST("/usage/generate-id", h.GenerateUserID)
		admin.GET("/usage/users/:uid", h.UserUsage)
		admin.DELETE("/usage/users/:uid", h.ResetUserUsage)
		admin.GET("/abuse/users/:uid", h.AbuseStatus)
		admin.DELETE("/abuse/users/:uid", h.ResetAbuse)
	}
}

// corsMiddleware allows any origin when no allowlist is configured;
// otherwise only listed origins are echoed back.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			middleware.UserIDHeader, middleware.AdminTokenHeader, middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{"X-Request-ID", "ETag", handlers.HeaderReplayed, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Set ACAO even without an Origin header so plain clients see it too.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{cors.New(base)}
}

func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "" and "/" as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
