package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/utils"
	"go.uber.org/zap"
)

// TraceID returns Gin middleware that reuses the caller's X-Trace-Id, falling back to
// X-Request-Id, or generates one. The id is exposed to handlers under pkg.TraceId and
// echoed on the response.
func TraceID(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.Request.Header.Get(pkg.HeaderTraceId)
		if utils.IsEmpty(traceID) {
			traceID = c.Request.Header.Get(pkg.HeaderRequestId)
		}
		if utils.IsEmpty(traceID) {
			traceID = uuid.New().String()
		}
		c.Set(pkg.TraceId, traceID)
		c.Writer.Header().Set(pkg.HeaderTraceId, traceID)

		start := time.Now()
		c.Next()

		logger.Debug("request_completed",
			zap.String(pkg.TraceId, traceID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
