package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned by GetJSON when the key does not exist or has expired.
var ErrMiss = errors.New("cache miss")

// Config holds Redis options. Only Addr is required; it is the APP_REDIS_ADDR value.
type Config struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	UseTLS       bool
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MaxRetries   int
}

// New returns a redis.Client verified with PING and a closer for shutdown.
func New(ctx context.Context, logger *zap.Logger, cfg Config) (*redis.Client, func(), error) {
	opts := &redis.Options{
		Addr:            cfg.Addr,
		Username:        cfg.Username,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     defaultDuration(cfg.DialTimeout, 3*time.Second),
		ReadTimeout:     defaultDuration(cfg.ReadTimeout, time.Second),
		WriteTimeout:    defaultDuration(cfg.WriteTimeout, time.Second),
		PoolSize:        defaultInt(cfg.PoolSize, 10),
		MinIdleConns:    2,
		MaxRetries:      defaultInt(cfg.MaxRetries, 2),
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("redis_connection_established", zap.String("addr", cfg.Addr))

	closer := func() {
		_ = client.Close()
		logger.Info("redis_connection_closed")
	}
	return client, closer, nil
}

// GetJSON loads key into out. Returns ErrMiss when the key is absent.
func GetJSON(ctx context.Context, client *redis.Client, key string, out any) error {
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// SetJSON stores v under key with the given expiry.
func SetJSON(ctx context.Context, client *redis.Client, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

func defaultDuration(v, d time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return d
}

func defaultInt(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
