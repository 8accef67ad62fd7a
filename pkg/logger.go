package pkg

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

// InitLogger initializes the global Logger. Gin release mode logs JSON to stdout,
// every other mode uses the colored development encoder.
// An empty or unknown level keeps the config's default.
func InitLogger(level string) {
	Logger = NewLogger(gin.Mode(), level)
}

// NewLogger builds a logger for the given gin mode and level.
func NewLogger(ginMode, level string) *zap.Logger {
	var config zap.Config
	if gin.ReleaseMode == ginMode {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if level != "" {
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	logger, err := config.Build(zap.AddStacktrace(zap.DPanicLevel))
	if err != nil {
		panic(err)
	}
	return logger
}
