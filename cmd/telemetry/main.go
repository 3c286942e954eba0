// Package main is the entry point for the telemetry rules service.
// It initializes all components and starts the HTTP server and the
// rule event notification agent.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"telemetry-go/internal/alarms"
	memoryalarms "telemetry-go/internal/alarms/memory"
	postgresalarms "telemetry-go/internal/alarms/postgres"
	"telemetry-go/internal/api"
	"telemetry-go/internal/banner"
	"telemetry-go/internal/config"
	"telemetry-go/internal/diagnostics"
	"telemetry-go/internal/events"
	kafkaevents "telemetry-go/internal/events/kafka"
	memoryevents "telemetry-go/internal/events/memory"
	"telemetry-go/internal/notification"
	"telemetry-go/internal/rules"
	"telemetry-go/internal/storage"
	memorystorage "telemetry-go/internal/storage/memory"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	banner.Print()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(&cfg.Logger)

	logger.Info("configuration loaded",
		"path", *configPath,
		"storage_mode", cfg.Storage.Mode,
	)

	// Initialize dependencies based on storage mode
	deps, cleanup, err := initDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create context that listens for shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start notification agent in background
	go func() {
		if err := deps.agent.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("notification agent error", "error", err)
			cancel()
		}
	}()

	// Start HTTP server
	go func() {
		if err := deps.server.Start(); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	logger.Info("telemetry rules service started",
		"address", cfg.Server.Address(),
		"storage_mode", cfg.Storage.Mode,
	)

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := deps.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := deps.agent.Stop(); err != nil {
		logger.Error("notification agent shutdown error", "error", err)
	}

	logger.Info("telemetry rules service stopped")
}

// dependencies holds all initialized service dependencies.
type dependencies struct {
	server *api.Server
	agent  *notification.Agent
}

// initDependencies creates and wires all service dependencies based on
// config. Returns the dependencies and a cleanup function.
func initDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, func(), error) {
	var (
		ruleStore    storage.Store
		alarmsSvc    alarms.Service
		producer     events.Producer
		consumer     events.Consumer
		cleanupFuncs []func()
	)

	if cfg.Storage.UseMemory() {
		// Initialize in-memory implementations
		logger.Info("initializing in-memory storage")

		ruleStore = memorystorage.NewStore()
		alarmsSvc = memoryalarms.NewService()

		memQueue := memoryevents.NewQueue(10000)
		producer = memQueue
		consumer = memQueue
		cleanupFuncs = append(cleanupFuncs, func() { _ = memQueue.Close() })
	} else {
		// Initialize real backends
		logger.Info("initializing production storage (storage adapter, PostgreSQL, Kafka)")

		ruleStore = storage.NewClient(&cfg.StorageAdapter)

		// Initialize PostgreSQL
		ctx := context.Background()
		db, err := postgresalarms.NewDB(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, db.Close)

		// Run migrations
		if err := db.RunMigrations(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations completed")

		alarmsSvc = postgresalarms.NewService(db)

		// Initialize Kafka
		kafkaProducer := kafkaevents.NewProducer(&cfg.Kafka)
		producer = kafkaProducer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaProducer.Close() })

		kafkaConsumer := kafkaevents.NewConsumer(&cfg.Kafka, logger)
		consumer = kafkaConsumer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaConsumer.Close() })
	}

	// Initialize diagnostics
	var sink diagnostics.Sink = diagnostics.NoopSink{}
	if cfg.Diagnostics.URL != "" {
		sink = diagnostics.NewHTTPSink(&cfg.Diagnostics)
	}
	diag := diagnostics.NewEmitter(sink, logger)

	// Initialize core services
	repo := rules.NewRepository(ruleStore, diag, logger)
	aggregator := rules.NewAggregator(repo, alarmsSvc, logger)
	publisher := events.NewPublisher(producer, logger)

	// Initialize notification agent
	notifier := notification.NewStubNotifier(logger)
	agent := notification.NewAgent(consumer, notifier, logger)

	// Initialize API handlers
	ruleHandler := api.NewRuleHandler(repo, publisher, logger)
	alarmHandler := api.NewAlarmHandler(alarmsSvc, logger)
	alarmsByRuleHandler := api.NewAlarmsByRuleHandler(aggregator, alarmsSvc, logger)

	// Initialize HTTP server
	server := api.NewServer(api.ServerDeps{
		Config:              &cfg.Server,
		Logger:              logger,
		RuleHandler:         ruleHandler,
		AlarmHandler:        alarmHandler,
		AlarmsByRuleHandler: alarmsByRuleHandler,
	})

	// Build cleanup function
	cleanup := func() {
		diag.Wait()
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	return &dependencies{
		server: server,
		agent:  agent,
	}, cleanup, nil
}

// initLogger creates and configures the application logger.
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

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
