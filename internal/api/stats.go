package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatsHandler serves graph statistics.
type StatsHandler struct {
	graph GraphStatter
	log   *logrus.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(graph GraphStatter, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{graph: graph, log: log}
}

// GetStats handles GET /graph/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.graph.Stats(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("graph stats failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to read graph stats")

		return
	}

	c.JSON(http.StatusOK, stats)
}
