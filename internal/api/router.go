package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Routes      RouteFinder
	Graph       GraphStatter
	Store       domain.HealthChecker
	Backend     string
	CORSOrigins []string
	Version     string
	RateLimit   int
	RateBurst   int
	HSTS        bool

	// SchemaVersion is reported by /health for migrated backends; zero omits it.
	SchemaVersion int
}

// Router-level limits.
const (
	maxBodySize      = 1 << 20 // queries carry no body
	defaultRateLimit = 20
	defaultRateBurst = 40
)

// setupMiddleware configures all middleware on the Gin engine and returns the
// rate limiter so routes can apply weighted costs.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) *middleware.RateLimiter {
	rate, burst := deps.RateLimit, deps.RateBurst
	if rate <= 0 {
		rate = defaultRateLimit
	}
	if burst <= 0 {
		burst = defaultRateBurst
	}

	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders(deps.HSTS))
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.PrometheusMiddleware())

	// Metrics are served outside the rate limiter for scrapers.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return middleware.NewRateLimiter(ctx, rate, burst)
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(api *gin.RouterGroup, limiter *middleware.RateLimiter, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Store, deps.Graph, log, deps.Version, deps.Backend)
	health.schema = deps.SchemaVersion
	routes := NewRouteHandler(deps.Routes, log)
	stats := NewStatsHandler(deps.Graph, log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	limited := api.Group("", limiter.Handler())
	limited.GET("/graph/stats", stats.GetStats)

	weighted := api.Group("/find-path", limiter.WeightedHandler(runsCost(deps.Routes.DefaultRuns())))
	weighted.GET("/:latitude/:longitude", routes.FindPath)
	weighted.GET("/:latitude/:longitude/:runs", routes.FindPath)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
// Routes are served under /api/v1; /api/find-path is kept for older clients.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	limiter := setupMiddleware(ctx, r, deps)
	registerRoutes(r.Group("/api/v1"), limiter, deps)

	legacy := NewRouteHandler(deps.Routes, deps.Log)
	r.GET("/api/find-path/:latitude/:longitude",
		limiter.WeightedHandler(runsCost(deps.Routes.DefaultRuns())), legacy.FindPath)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "no such endpoint")
	})

	return r
}
