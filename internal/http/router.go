// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, rate limiting, and compression.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS, gzip and security headers
//
// Identity resolution (RequireUser) applies only to the versioned API group,
// leaving /health and /metrics reachable for probes and scrapers.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/Bashy-Codes/wf-server/internal/config"
	"github.com/Bashy-Codes/wf-server/internal/friends"
	"github.com/Bashy-Codes/wf-server/internal/guard"
	"github.com/Bashy-Codes/wf-server/internal/http/handlers"
	"github.com/Bashy-Codes/wf-server/internal/http/middleware"
	"github.com/Bashy-Codes/wf-server/internal/notify"
	"github.com/Bashy-Codes/wf-server/internal/profile"
	"github.com/Bashy-Codes/wf-server/internal/realtime"
	"github.com/Bashy-Codes/wf-server/internal/scheduler"
	"github.com/Bashy-Codes/wf-server/internal/services"
)

// Deps carries the collaborators injected into the route handlers.
type Deps struct {
	DB        *gorm.DB
	Friends   friends.Checker
	Notifier  notify.Dispatcher
	Realtime  realtime.Publisher
	Scheduler *scheduler.Scheduler
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine, then mounts the versioned public API under cfg.APIBasePath.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (allow all when no origins configured)
	corsHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "Idempotency-Key"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Compression for the JSON-heavy list endpoints
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repos/guard/collaborators
	g := &guard.Guard{Friends: deps.Friends}
	res := profile.Resolver{BaseURL: cfg.MediaBaseURL}

	letterSvc := services.NewLetterService(deps.DB, g, res, deps.Notifier)
	convSvc := services.NewConversationService(deps.DB, g, res, deps.Realtime)
	msgSvc := services.NewMessageService(deps.DB, res, deps.Notifier, deps.Realtime, cfg.IdempotencyTTL)

	h := handlers.New(letterSvc, convSvc, msgSvc, deps.Scheduler)

	// Public API: all routes require an authenticated caller
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.RequireUser())
	{
		// Letters
		api.POST("/letters", h.ScheduleLetter)
		api.GET("/letters/received", h.ReceivedLetters)
		api.GET("/letters/sent", h.SentLetters)
		api.GET("/letters/:id", h.GetLetter)
		api.DELETE("/letters/:id", h.DeleteLetter)

		// Conversations
		api.POST("/conversations", h.CreateConversation)
		api.GET("/conversations", h.ListConversations)
		api.POST("/conversations/:id/read", h.MarkConversationRead)
		api.DELETE("/conversations/:id", h.DeleteConversation)

		// Messages
		api.POST("/conversations/:id/messages", h.SendMessage)
		api.GET("/conversations/:id/messages", h.ListMessages)
		api.DELETE("/messages/:id", h.DeleteMessage)

		// System
		api.GET("/scheduler/status", h.SchedulerStatus)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies fail on read downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
