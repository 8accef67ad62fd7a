package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"go.uber.org/zap"
)

// RateLimit rejects requests with 429 once the limiter's budget is spent.
func RateLimit(logger *zap.Logger, limiter *pkg.DistributedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.Allow(c.Request.Context()) {
			c.Next()
			return
		}
		resp := pkg.ToErrorResponse(logger, c.GetString(pkg.TraceId),
			pkg.NewAppError(pkg.ErrRateLimitExceededCode, "order submission rate exceeded, please retry shortly", nil))
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(resp.Status, resp)
	}
}
