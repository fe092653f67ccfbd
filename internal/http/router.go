// Package httpapi wires the HTTP transport (Gin) to the signaling and relay
// services, middleware, and route handlers. It centralizes cross-cutting
// concerns: tracing, correlation IDs, logging, panic recovery, metrics,
// rate limiting, CORS, response compression, and security headers.
//
// Design goals:
//   - Observability first (OTel + Prometheus); the API is polling-driven,
//     so per-route metrics are the primary health signal
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-voice-backend/internal/config"
	"github.com/tbourn/go-voice-backend/internal/domain"
	"github.com/tbourn/go-voice-backend/internal/http/handlers"
	"github.com/tbourn/go-voice-backend/internal/http/middleware"
	"github.com/tbourn/go-voice-backend/internal/repo"
	"github.com/tbourn/go-voice-backend/internal/services"
)

// callRepoShim adapts the repository free functions to the services.CallRepo
// interface expected by the CallService. This keeps the service decoupled
// from the concrete repo package while reusing existing functions.
type callRepoShim struct{}

// CreateCall proxies repo.CreateCall.
func (callRepoShim) CreateCall(ctx context.Context, db *gorm.DB, callerID, calleeID string) (*domain.Call, error) {
	return repo.CreateCall(ctx, db, callerID, calleeID)
}

// GetCall proxies repo.GetCall.
func (callRepoShim) GetCall(ctx context.Context, db *gorm.DB, id uint) (*domain.Call, error) {
	return repo.GetCall(ctx, db, id)
}

// GetCallForUser proxies repo.GetCallForUser.
func (callRepoShim) GetCallForUser(ctx context.Context, db *gorm.DB, id uint, userID string) (*domain.Call, error) {
	return repo.GetCallForUser(ctx, db, id, userID)
}

// LatestOpenCall proxies repo.LatestOpenCall.
func (callRepoShim) LatestOpenCall(ctx context.Context, db *gorm.DB, userID string) (*domain.Call, error) {
	return repo.LatestOpenCall(ctx, db, userID)
}

// HasOpenCall proxies repo.HasOpenCall.
func (callRepoShim) HasOpenCall(ctx context.Context, db *gorm.DB, userID string) (bool, error) {
	return repo.HasOpenCall(ctx, db, userID)
}

// UpdateCallStatus proxies repo.UpdateCallStatus.
func (callRepoShim) UpdateCallStatus(ctx context.Context, db *gorm.DB, id uint, status domain.CallStatus) (*domain.Call, error) {
	return repo.UpdateCallStatus(ctx, db, id, status)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine, then mounts the public API under the configured base path.
//
// Middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter (voice clips are the largest payloads)
//  6. Metrics and /metrics endpoint
//  7. Rate limiter (per user/IP; rate admits the polling cadences)
//  8. CORS, gzip (base64 clip lists compress well), security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (allow all when no origins configured)
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Compress responses; the message poll returns base64 audio lists.
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

	// Dependency injection: services ← repo/db
	callSvc := services.NewCallService(db, callRepoShim{})
	callSvc.AllowConcurrentCalls = cfg.AllowConcurrentCalls
	roomSvc := &services.RoomService{DB: db}
	voiceSvc := &services.VoiceService{DB: db, MaxClipBytes: cfg.MaxClipBytes}
	h := handlers.New(callSvc, roomSvc, voiceSvc)

	// Public API: every route requires an identified user.
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.RequireUser())
	{
		// Call signaling
		api.GET("/calls", h.GetCalls)
		api.POST("/calls", h.CreateCall)
		api.PUT("/calls", h.TransitionCall)

		// Voice rooms and relay
		api.GET("/voice", h.GetVoice)
		api.POST("/voice", h.PostVoice)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints using http.MaxBytesReader. Requests exceeding the cap cause
// downstream body reads to error.
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
