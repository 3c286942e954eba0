package storageadapter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"telemetry-go/internal/domain"
	"telemetry-go/internal/metrics"
)

// Server is the adapter's HTTP surface: collection/value routes over a
// DocStore backend.
type Server struct {
	app     *fiber.App
	store   DocStore
	backend string
	logger  *slog.Logger
}

// NewServer creates the adapter server. backend names the DocStore
// implementation for metrics labels.
func NewServer(store DocStore, backend string, log *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "storage-adapter",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	s := &Server{app: app, store: store, backend: backend, logger: log}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	values := app.Group("/collections/:collection/values")
	values.Get("/", s.getAll)
	values.Post("/", s.insert)
	values.Get("/:key", s.get)
	values.Put("/:key", s.upsert)
	values.Delete("/:key", s.delete)

	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start begins listening on the given address. Blocks until shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("storage adapter listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) getAll(c *fiber.Ctx) error {
	collection := c.Params("collection")

	docs, err := s.store.GetAll(c.Context(), collection)
	if err != nil {
		return s.fail(c, "getall", err)
	}

	s.count("getall", "ok")
	return c.JSON(DocumentList{Items: docs})
}

func (s *Server) get(c *fiber.Ctx) error {
	collection := c.Params("collection")
	key := c.Params("key")

	doc, err := s.store.Get(c.Context(), collection, key)
	if err != nil {
		return s.fail(c, "get", err)
	}

	s.count("get", "ok")
	return c.JSON(doc)
}

func (s *Server) insert(c *fiber.Ctx) error {
	collection := c.Params("collection")

	data, _, err := readData(c)
	if err != nil {
		return s.fail(c, "insert", err)
	}

	doc, err := s.store.Insert(c.Context(), collection, data)
	if err != nil {
		return s.fail(c, "insert", err)
	}

	s.count("insert", "ok")
	return c.JSON(doc)
}

func (s *Server) upsert(c *fiber.Ctx) error {
	collection := c.Params("collection")
	key := c.Params("key")

	data, etag, err := readData(c)
	if err != nil {
		return s.fail(c, "upsert", err)
	}
	if etag == "" {
		etag = c.Query("etag")
	}

	doc, err := s.store.Upsert(c.Context(), collection, key, data, etag)
	if err != nil {
		return s.fail(c, "upsert", err)
	}

	s.count("upsert", "ok")
	return c.JSON(doc)
}

func (s *Server) delete(c *fiber.Ctx) error {
	collection := c.Params("collection")
	key := c.Params("key")

	if err := s.store.Delete(c.Context(), collection, key); err != nil {
		return s.fail(c, "delete", err)
	}

	s.count("delete", "ok")
	return c.JSON(fiber.Map{"status": "ok"})
}

// readData extracts the Data and ETag fields of the request envelope.
// Clients present the ETag inside the envelope on writes.
func readData(c *fiber.Ctx) (string, string, error) {
	var body struct {
		Data string `json:"Data"`
		ETag string `json:"ETag"`
	}
	if err := c.BodyParser(&body); err != nil {
		return "", "", domain.NewInvalidInput("invalid request body: %v", err)
	}
	return body.Data, body.ETag, nil
}

// fail records the failed operation and translates the error to an
// HTTP status.
func (s *Server) fail(c *fiber.Ctx, operation string, err error) error {
	switch {
	case domain.IsNotFound(err):
		s.count(operation, "not_found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case domain.IsConflict(err):
		s.count(operation, "conflict")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case domain.IsInvalidInput(err):
		s.count(operation, "invalid")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		s.count(operation, "error")
		s.logger.Error("storage adapter operation failed", "operation", operation, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func (s *Server) count(operation, status string) {
	metrics.DocStoreOperationsTotal.WithLabelValues(s.backend, operation, status).Inc()
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
