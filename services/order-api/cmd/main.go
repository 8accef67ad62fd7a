package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/app"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/configs"
	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger until the configured level is known
	pkg.InitLogger("")
	cfg, err := configs.Load(pkg.Logger)
	if err != nil {
		pkg.Logger.Fatal("failed to load config", zap.Error(err))
	}
	pkg.InitLogger(cfg.LogLevel)
	logger := pkg.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := app.NewApp(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", zap.Error(err))
	}

	go func() {
		logger.Info("order_api_started", zap.String("port", cfg.Port), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Handle shutdown signals (SIGINT, SIGTERM) for a K8s pod termination grace period
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	cleanup()

	_ = logger.Sync()
	os.Exit(0)
}
