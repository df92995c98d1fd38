package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/httputil"
)

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid := httputil.RequestID(c); rid != "" {
			fields["request_id"] = rid
		}
		log.WithFields(fields).Info("request")
	}
}

// parseCoordinate parses a path segment as degrees. Range checks happen in the finder.
func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)

	return v, err == nil
}

// parseRuns parses an optional run count, falling back when the segment is absent.
func parseRuns(s string, fallback int) (int, bool) {
	if s == "" {
		return fallback, true
	}

	v, err := strconv.Atoi(s)

	return v, err == nil
}

// runsCost prices a find-path request for the rate limiter: every five walks
// cost one token.
func runsCost(fallback int) func(c *gin.Context) float64 {
	return func(c *gin.Context) float64 {
		runs, ok := parseRuns(c.Param("runs"), fallback)
		if !ok || runs < 0 {
			return 1
		}

		return float64(runs) / 5
	}
}
