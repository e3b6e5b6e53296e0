package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with a trace id (client-supplied or
// freshly generated), echoes it in the response headers, and emits one
// access-log line per request so log lines across tiers can be
// correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		slog.Debug("request handled",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
