package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DistributedLimiter combines a local rate.Limiter with an optional Redis window counter
// so several order-api replicas share one submission budget.
type DistributedLimiter struct {
	localLimiter *rate.Limiter
	redisClient  *redis.Client // nil: local enforcement only
	key          string        // e.g: "desk:submit_rate"
	window       time.Duration
	logger       *zap.Logger
}

// NewDistributedLimiter creates a limiter; if perSecond=0, it's unlimited.
func NewDistributedLimiter(redisClient *redis.Client, key string, perSecond, burst int, logger *zap.Logger) *DistributedLimiter {
	var local *rate.Limiter
	if perSecond > 0 {
		if burst <= 0 {
			burst = perSecond
		}
		local = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return &DistributedLimiter{
		localLimiter: local,
		redisClient:  redisClient,
		key:          key,
		window:       time.Second,
		logger:       logger,
	}
}

// Allow checks if a token is available; with Redis configured the per-second
// window counter is shared across replicas.
func (d *DistributedLimiter) Allow(ctx context.Context) bool {
	if d.localLimiter == nil {
		return true
	}

	// Local check first (fast path)
	if !d.localLimiter.Allow() {
		return false
	}
	if d.redisClient == nil {
		return true
	}

	windowKey := fmt.Sprintf("%s:%d", d.key, time.Now().Unix())
	pipe := d.redisClient.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, 2*d.window)
	if _, err := pipe.Exec(ctx); err != nil {
		d.logger.Warn("redis_rate_limit_error_falling_back_to_local", zap.Error(err))
		return true
	}

	count := incr.Val()
	if count > int64(d.localLimiter.Burst()) {
		d.logger.Warn("global_rate_limit_exceeded", zap.Int64("count", count), zap.String("key", d.key))
		return false
	}
	return true
}
