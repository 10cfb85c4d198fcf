package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/sentiment-api/config"
	"github.com/spacesedan/sentiment-api/internal/analysis"
	"github.com/spacesedan/sentiment-api/internal/logging"
	"github.com/spacesedan/sentiment-api/internal/monitoring"
	"github.com/spacesedan/sentiment-api/internal/sentiment"
	"github.com/spacesedan/sentiment-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	classifier, err := sentiment.New(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Failed to initialize classifier",
			slog.String("backend", cfg.ClassifierBackend),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := sentiment.Close(classifier); err != nil {
			slog.Warn("[Main] Failed to release classifier", slog.String("error", err.Error()))
		}
	}()

	registry := monitoring.NewRegistry()
	svc := analysis.NewService(classifier, monitoring.NewInferenceMetrics(registry))
	srv := server.NewServer(cfg, svc, classifier, registry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("[Main] Shutting down...")
	case err := <-errCh:
		if err != nil {
			slog.Error("[Main] Server stopped", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Graceful shutdown failed", slog.String("error", err.Error()))
	}
}
