package middleware_test

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/httputil"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func requestIDFrom(c *gin.Context) string {
	return httputil.RequestIDFrom(c.Request.Context())
}
