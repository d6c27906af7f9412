package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mentorhub/apikit/logging/logger"
)

// Logging logs one line per request and threads a correlation id through the
// request context so downstream log entries can be tied together.
func Logging(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.StdLogger()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		correlationID := c.GetHeader(CorrelationHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		ctx := logger.WithCorrelationID(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(CorrelationHeader, correlationID)

		c.Next()

		log.Info(ctx, "HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"ip", c.ClientIP(),
		)
	}
}
