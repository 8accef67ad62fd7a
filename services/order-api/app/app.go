package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/cache"
	"github.com/nimeshabuddhika/treasury-desk/pkg/database"
	middleware "github.com/nimeshabuddhika/treasury-desk/pkg/middlewares"
	"github.com/nimeshabuddhika/treasury-desk/pkg/repositories"
	"github.com/nimeshabuddhika/treasury-desk/pkg/treasury"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/configs"
	_ "github.com/nimeshabuddhika/treasury-desk/services/order-api/docs"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/clock"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/handlers"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/swaggo/files"
	"github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const submitLimiterKey = "desk:submit_rate"

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// On error every dependency opened so far is already released.
func NewApp(ctx context.Context, logger *zap.Logger, cfg *configs.Config) (*http.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		// release in reverse order of creation
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*http.Server, func(), error) {
		cleanup()
		return nil, nil, err
	}

	checks := make(map[string]handlers.HealthCheck)

	// Order storage
	var orderRepo repositories.OrderRepository
	switch cfg.StorageDriver {
	case configs.StorageDriverMemory:
		memRepo := repositories.NewMemoryOrderRepository()
		closers = append(closers, memRepo.Close)
		orderRepo = memRepo
		logger.Warn("using in-memory order storage, orders are lost on restart")
	default:
		db, disconnect, err := database.New(ctx, logger, database.Config{
			PrimaryDSN: cfg.PrimaryDbAddr,
			MaxConns:   cfg.MaxDbCons,
			MinConns:   cfg.MinDbCons,
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, disconnect)
		if err := database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
			return fail(err)
		}
		orderRepo = repositories.NewOrderRepository(db)
		checks["postgres"] = db.Ping
	}

	// Optional shared cache and rate-limit state
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		client, closeRedis, err := cache.New(ctx, logger, cache.Config{Addr: cfg.RedisAddr})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, closeRedis)
		redisClient = client
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	clk := clock.NewSystem()

	// Yield reference
	source := treasury.NewHTTPSource(logger, treasury.SourceConfig{
		URLTemplate: cfg.YieldSourceURL,
		Timeout:     cfg.UpstreamTimeout,
		MaxAttempts: cfg.UpstreamMaxAttempts,
		MaxBackoff:  cfg.UpstreamMaxBackoff,
	})
	curveCache := services.NewCurveCache(logger, clk, cfg.YieldRetentionTime, redisClient)
	yieldService := services.NewYieldService(logger, source, curveCache, clk, services.YieldServiceConfig{
		StaleTime:         cfg.YieldStaleTime,
		RetentionTime:     cfg.YieldRetentionTime,
		RevalidateTimeout: cfg.UpstreamTimeout * 2,
	})
	closers = append(closers, yieldService.Close)

	// Order events
	feed := services.NewOrderFeed(logger, 64)
	closers = append(closers, feed.Close)
	publishers := []services.OrderEventPublisher{feed}
	if cfg.KafkaBrokers != "" {
		kafkaPublisher, err := services.NewKafkaPublisher(logger, ctx, cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, kafkaPublisher.Close)
		publishers = append(publishers, kafkaPublisher)
	}

	orderService := services.NewOrderService(logger, orderRepo, clk, publishers...)
	limiter := pkg.NewDistributedLimiter(redisClient, submitLimiterKey, cfg.SubmitRateLimit, cfg.SubmitBurst, logger)

	baseHandler := handlers.NewBaseHandler(logger, checks)
	orderHandler := handlers.NewOrderHandler(logger, orderService, middleware.RateLimit(logger, limiter))
	yieldHandler := handlers.NewYieldHandler(logger, yieldService, clk)
	streamHandler := handlers.NewStreamHandler(logger, feed, cfg.AllowedOrigins())

	// Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceID(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	orderHandler.RegisterRoutes(api)
	streamHandler.RegisterRoutes(api)
	yieldHandler.RegisterRoutes(api)
	baseHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	return srv, cleanup, nil
}
