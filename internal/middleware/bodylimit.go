package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/orienteer/internal/httputil"
)

// MaxBodySize rejects requests declaring a body above maxBytes and caps the
// reader for the rest.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.RespondError(c, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")

			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
