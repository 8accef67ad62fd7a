package configs

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/nimeshabuddhika/treasury-desk/pkg/treasury"
	"github.com/nimeshabuddhika/treasury-desk/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Port          string `mapstructure:"PORT" validate:"required,numeric"`
	LogLevel      string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	StorageDriver string `mapstructure:"STORAGE_DRIVER" validate:"oneof=postgres memory"`
	PrimaryDbAddr string `mapstructure:"PRIMARY_DB_ADDR" validate:"required_if=StorageDriver postgres"`
	MaxDbCons     int32  `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons     int32  `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1,ltefield=MaxDbCons"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`

	YieldSourceURL      string        `mapstructure:"YIELD_SOURCE_URL" validate:"required,startswith=http,contains={year}"`
	YieldStaleTime      time.Duration `mapstructure:"YIELD_STALE_TIME" validate:"gt=0,ltfield=YieldRetentionTime"`
	YieldRetentionTime  time.Duration `mapstructure:"YIELD_RETENTION_TIME" validate:"gt=0"`
	UpstreamTimeout     time.Duration `mapstructure:"UPSTREAM_TIMEOUT" validate:"gt=0"`
	UpstreamMaxAttempts int           `mapstructure:"UPSTREAM_MAX_ATTEMPTS" validate:"min=1,max=10"`
	UpstreamMaxBackoff  time.Duration `mapstructure:"UPSTREAM_MAX_BACKOFF" validate:"gt=0"`

	SubmitRateLimit int `mapstructure:"SUBMIT_RATE_LIMIT" validate:"min=0"`
	SubmitBurst     int `mapstructure:"SUBMIT_BURST" validate:"min=0"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC" validate:"required_with=KafkaBrokers"`
	KafkaPartition  int    `mapstructure:"KAFKA_PARTITION" validate:"min=1"`

	CorsAllowedOrigins string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0)
	for _, o := range strings.Split(c.CorsAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func Load(logger *zap.Logger) (*Config, error) {
	// A local .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("dotenv_load_failed", zap.Error(err))
	}

	viper.Reset()
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("YIELD_SOURCE_URL", treasury.DefaultURLTemplate)
	viper.SetDefault("YIELD_STALE_TIME", "5m")
	viper.SetDefault("YIELD_RETENTION_TIME", "10m")
	viper.SetDefault("UPSTREAM_TIMEOUT", "10s")
	viper.SetDefault("UPSTREAM_MAX_ATTEMPTS", "3")
	viper.SetDefault("UPSTREAM_MAX_BACKOFF", "30s")
	viper.SetDefault("SUBMIT_RATE_LIMIT", "50")
	viper.SetDefault("SUBMIT_BURST", "100")
	viper.SetDefault("KAFKA_ORDER_TOPIC", "desk.orders")
	viper.SetDefault("KAFKA_PARTITION", "4")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "5s")

	// Optional: Read from config.<mode>.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running in development mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./services/order-api/configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
