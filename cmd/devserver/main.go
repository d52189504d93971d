package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venezia-storefront/internal/config"
	"venezia-storefront/internal/devserver"
	"venezia-storefront/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set in environment")
	}
	if cfg.WompiPublicKey == "" || cfg.WompiIntegritySecret == "" {
		log.Warn("wompi keys not set, payment init will return unusable params")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: devserver.NewServer(cfg).Router(),
	}

	go func() {
		log.Info("dev backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}
