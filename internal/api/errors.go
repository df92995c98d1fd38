package api

import (
	"github.com/gin-gonic/gin"

	"github.com/persistorai/orienteer/internal/httputil"
	"github.com/persistorai/orienteer/internal/metrics"
)

// Error code constants for standardized API responses.
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInternalError = "internal_error"
	ErrCodeRateLimited   = "rate_limited"
)

// respondError counts the error and writes the standardized JSON error body.
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}
