package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthCheck checks one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

type BaseHandler struct {
	logger *zap.Logger
	checks map[string]HealthCheck
}

func NewBaseHandler(logger *zap.Logger, checks map[string]HealthCheck) *BaseHandler {
	return &BaseHandler{logger: logger, checks: checks}
}

func (b *BaseHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", b.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// GetHealth godoc
// @Summary      Service health
// @Tags         ops
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (b *BaseHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(b.checks))
	for name, check := range b.checks {
		if err := check(ctx); err != nil {
			b.logger.Warn("health_check_failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}

// writeError renders err as the standard error envelope. Transient failures carry a
// Retry-After hint.
func writeError(c *gin.Context, logger *zap.Logger, traceID string, err error) {
	if pkg.IsRetryable(err) {
		c.Header("Retry-After", "1")
	}
	resp := pkg.ToErrorResponse(logger, traceID, err)
	c.JSON(resp.Status, resp)
}

// traceID returns the request trace id; a missing id means the TraceID middleware
// was not installed, which is a server fault.
func traceID(c *gin.Context, logger *zap.Logger) (string, bool) {
	id, err := utils.GetTraceID(c)
	if err != nil {
		writeError(c, logger, "", pkg.NewAppError(pkg.ErrServerCode, pkg.ErrServerCode.Message, err))
		return "", false
	}
	return id, true
}
