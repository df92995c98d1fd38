// Package api provides HTTP handlers for the route server.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/domain"
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	store     domain.HealthChecker
	graph     GraphStatter
	log       *logrus.Logger
	version   string
	backend   string
	schema    int
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. store and graph may be nil.
func NewHealthHandler(store domain.HealthChecker, graph GraphStatter, log *logrus.Logger, version, backend string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		graph:     graph,
		log:       log,
		version:   version,
		backend:   backend,
		startTime: time.Now(),
	}
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthResponse is the JSON payload returned by the liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Backend       string  `json:"backend"`
	Store         string  `json:"store"`
	SchemaVersion int     `json:"schema_version,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Liveness handles GET /health. A failing store is reported but does not fail liveness.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Backend:       h.backend,
		Store:         "connected",
		SchemaVersion: h.schema,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.store.HealthCheck(ctx); err != nil {
			resp.Store = "disconnected"
		}
	} else {
		resp.Store = "not_configured"
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /ready: the store must answer and the graph must hold
// nodes built for the configured radius.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"store": "ok",
		"graph": "ok",
	}
	status := "ready"
	statusCode := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if h.store != nil {
		if err := h.store.HealthCheck(ctx); err != nil {
			h.log.WithError(err).Error("readiness: store health check failed")
			checks["store"] = "error"
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
		}
	}

	switch {
	case checks["store"] != "ok" || h.graph == nil:
		checks["graph"] = "unknown"
	default:
		stats, err := h.graph.Stats(ctx)
		if err != nil {
			h.log.WithError(err).Error("readiness: graph stats failed")
			checks["graph"] = "error"
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
		} else if stats.Nodes == 0 {
			checks["graph"] = "empty"
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
		} else if v, ok := h.graph.(GraphVerifier); ok {
			if err := v.Verify(ctx); err != nil {
				h.log.WithError(err).Error("readiness: graph verification failed")
				checks["graph"] = "mismatch"
				status = "not_ready"
				statusCode = http.StatusServiceUnavailable
			}
		}
	}

	c.JSON(statusCode, readinessResponse{Status: status, Checks: checks})
}
