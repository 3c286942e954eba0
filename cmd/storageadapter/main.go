// Package main is the entry point for the bundled storage adapter
// service: a schemaless key-value document store over HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telemetry-go/internal/config"
	"telemetry-go/internal/storageadapter"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	logger := initLogger(&cfg.Logger)

	var store storageadapter.DocStore
	switch cfg.AdapterServer.Backend {
	case config.AdapterBackendRedis:
		redisStore, err := storageadapter.NewRedisStore(&cfg.Redis)
		if err != nil {
			logger.Error("failed to initialize redis document store", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		store = redisStore
	default:
		store = storageadapter.NewMemoryStore()
	}

	server := storageadapter.NewServer(store, string(cfg.AdapterServer.Backend), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := server.Start(cfg.AdapterServer.Address()); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	logger.Info("storage adapter started",
		"address", cfg.AdapterServer.Address(),
		"backend", cfg.AdapterServer.Backend,
	)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("storage adapter stopped")
}

func initLogger(cfg *config.LoggerConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
