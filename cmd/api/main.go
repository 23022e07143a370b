package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/RedDeadth/Typeimp-Repository/internal/config"
	"github.com/RedDeadth/Typeimp-Repository/internal/di"
	"github.com/RedDeadth/Typeimp-Repository/internal/observability"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	shutdownTracing := func(context.Context) error { return nil }
	if cfg.EnableTracing && cfg.OTelEndpoint != "" {
		shutdownTracing, err = observability.InitTracing(ctx, "notes-api", cfg.Environment, cfg.OTelEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" && cfg.IsDevelopment() {
		watcher, err := config.NewWatcher(path, cfg, logger)
		if err != nil {
			logger.Warn("Configuration hot reloading unavailable", zap.Error(err))
		} else {
			watcher.OnChange(func(next *config.Config) {
				container.LogLevel.SetLevel(observability.ParseLevel(next.LogLevel))
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("store", cfg.StoreDriver),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown error", zap.Error(err))
	}

	_ = logger.Sync()
	log.Println("Server stopped")
}
