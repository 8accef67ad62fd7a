package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg/cache"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/clock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CurveCache stores upstream year documents. Entries older than the retention window
// are never returned.
type CurveCache interface {
	Get(ctx context.Context, year int) (models.YearCurves, bool)
	Put(ctx context.Context, doc models.YearCurves)
}

// CurveCacheImpl keeps year documents in process memory and, when a Redis client is
// given, shares them with other replicas. Redis failures degrade to memory only.
type CurveCacheImpl struct {
	logger    *zap.Logger
	clock     clock.Clock
	retention time.Duration
	redis     *redis.Client

	mu      sync.RWMutex
	entries map[int]models.YearCurves
}

func NewCurveCache(logger *zap.Logger, clk clock.Clock, retention time.Duration, redisClient *redis.Client) *CurveCacheImpl {
	return &CurveCacheImpl{
		logger:    logger,
		clock:     clk,
		retention: retention,
		redis:     redisClient,
		entries:   make(map[int]models.YearCurves),
	}
}

func (c *CurveCacheImpl) Get(ctx context.Context, year int) (models.YearCurves, bool) {
	c.mu.RLock()
	doc, ok := c.entries[year]
	c.mu.RUnlock()
	if ok {
		if c.retained(doc) {
			return doc, true
		}
		c.mu.Lock()
		if cur, still := c.entries[year]; still && !c.retained(cur) {
			delete(c.entries, year)
		}
		c.mu.Unlock()
	}

	if c.redis == nil {
		return models.YearCurves{}, false
	}
	var shared models.YearCurves
	if err := cache.GetJSON(ctx, c.redis, redisKey(year), &shared); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.logger.Warn("yield_cache_redis_get_failed", zap.Int("year", year), zap.Error(err))
		}
		return models.YearCurves{}, false
	}
	if !c.retained(shared) {
		return models.YearCurves{}, false
	}
	c.storeLocal(shared)
	return shared, true
}

// Put keeps the newest document per year.
func (c *CurveCacheImpl) Put(ctx context.Context, doc models.YearCurves) {
	if !c.storeLocal(doc) {
		return
	}
	if c.redis == nil {
		return
	}
	ttl := c.retention - c.clock.Now().Sub(doc.FetchedAt)
	if ttl <= 0 {
		return
	}
	if err := cache.SetJSON(ctx, c.redis, redisKey(doc.Year), doc, ttl); err != nil {
		c.logger.Warn("yield_cache_redis_set_failed", zap.Int("year", doc.Year), zap.Error(err))
	}
}

func (c *CurveCacheImpl) storeLocal(doc models.YearCurves) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[doc.Year]; ok && cur.FetchedAt.After(doc.FetchedAt) {
		return false
	}
	c.entries[doc.Year] = doc
	return true
}

func (c *CurveCacheImpl) retained(doc models.YearCurves) bool {
	return c.clock.Now().Sub(doc.FetchedAt) < c.retention
}

func redisKey(year int) string {
	return fmt.Sprintf("desk:yields:%d", year)
}
