// Package middleware provides HTTP middleware for the route server.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/httputil"
)

// RequestIDHeader is the HTTP header used to propagate the request ID.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request a fresh server-side UUID, exposes it in the
// response header and carries it in the request context for service logs.
// A client-supplied X-Request-ID is only logged alongside it.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			log.WithFields(logrus.Fields{
				"request_id":        id,
				"client_request_id": clientID,
			}).Debug("client request id mapped")
		}

		c.Set(httputil.RequestIDKey, id)
		c.Request = c.Request.WithContext(httputil.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
