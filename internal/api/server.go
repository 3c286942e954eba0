package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telemetry-go/internal/config"
)

// Server represents the HTTP server with all configured routes and middleware.
type Server struct {
	app    *fiber.App
	config *config.ServerConfig
	logger *slog.Logger

	// Handlers
	ruleHandler         *RuleHandler
	alarmHandler        *AlarmHandler
	alarmsByRuleHandler *AlarmsByRuleHandler
}

// ServerDeps contains all dependencies required to create a new Server.
type ServerDeps struct {
	Config              *config.ServerConfig
	Logger              *slog.Logger
	RuleHandler         *RuleHandler
	AlarmHandler        *AlarmHandler
	AlarmsByRuleHandler *AlarmsByRuleHandler
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps ServerDeps) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           deps.Config.ReadTimeout,
		WriteTimeout:          deps.Config.WriteTimeout,
		IdleTimeout:           deps.Config.IdleTimeout,
		ErrorHandler:          customErrorHandler,
	})

	s := &Server{
		app:                 app,
		config:              deps.Config,
		logger:              deps.Logger,
		ruleHandler:         deps.RuleHandler,
		alarmHandler:        deps.AlarmHandler,
		alarmsByRuleHandler: deps.AlarmsByRuleHandler,
	}

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(requestid.New())

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	// Health check endpoint (outside versioned API)
	s.app.Get("/healthz", s.healthCheck)

	// Prometheus metrics endpoint
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.app.Group("/v1")

	// Rule lifecycle
	v1.Get("/rules", s.ruleHandler.List)
	v1.Post("/rules", s.ruleHandler.Create)
	v1.Post("/rules/delete", s.ruleHandler.DeleteMany)
	v1.Get("/rules/:id", s.ruleHandler.Get)
	v1.Put("/rules/:id", s.ruleHandler.Upsert)
	v1.Delete("/rules/:id", s.ruleHandler.Delete)

	// Alarm maintenance
	v1.Get("/alarms", s.alarmHandler.List)
	v1.Post("/alarms/delete", s.alarmHandler.DeleteMany)
	v1.Get("/alarms/:id", s.alarmHandler.Get)
	v1.Patch("/alarms/:id", s.alarmHandler.UpdateStatus)
	v1.Delete("/alarms/:id", s.alarmHandler.Delete)

	// Alarm-by-rule aggregation
	v1.Get("/alarmsbyrule", s.alarmsByRuleHandler.List)
	v1.Get("/alarmsbyrule/:id", s.alarmsByRuleHandler.ListByRule)
}

// healthCheck returns the health status of the service.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return Success(c, map[string]string{
		"status": "healthy",
	})
}

// App exposes the underlying fiber app. Test hook.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	addr := s.config.Address()
	s.logger.Info("starting HTTP server", "address", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler handles errors returned from handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return Error(c, e.Code, ErrCodeInternalError, e.Message)
	}
	return InternalError(c, fmt.Sprintf("unexpected error: %v", err))
}
