// Package httputil provides shared HTTP response helpers.
package httputil

import (
	"context"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key holding the canonical request ID.
const RequestIDKey = "request_id"

type ctxKey struct{}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RequestID returns the request ID set by the RequestID middleware, or "".
func RequestID(c *gin.Context) string {
	if rid, ok := c.Get(RequestIDKey); ok {
		if s, ok := rid.(string); ok {
			return s
		}
	}

	return ""
}

// WithRequestID stores id in ctx so code below the HTTP layer can log it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestIDFrom returns the request ID carried by ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string) //nolint:errcheck // type assertion, not an error.

	return id
}

// RespondError writes a standardized JSON error response and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: RequestID(c),
	})
}
