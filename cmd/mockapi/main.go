package main

import (
	"context"
	"errors"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/fastygo/rozklad/internal/config"
	"github.com/fastygo/rozklad/internal/mockapi"
	"github.com/fastygo/rozklad/internal/services/lifecycle"
	"github.com/fastygo/rozklad/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    os.Getenv("MOCKAPI_LOG_LEVEL"),
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.WithSignals(context.Background())
	defer cancel()

	server, err := mockapi.New(mockapi.Config{
		Prefix:    cfg.API.Prefix,
		JWTSecret: cfg.MockAPI.JWTSecret,
		TokenTTL:  cfg.MockAPI.TokenTTL,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to build mock api", zap.Error(err))
	}
	for _, acc := range mockapi.DefaultAccounts {
		zapLogger.Info("seeded account", zap.String("username", acc.Username), zap.String("role", string(acc.Role)))
	}

	go func() {
		if err := server.ListenAndServe(cfg.MockAPIAddress()); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("server crashed", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", server.Shutdown)

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
