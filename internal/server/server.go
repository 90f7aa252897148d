package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-bake/internal/logger"
	"github.com/goliatone/go-bake/pkg/model"
	"github.com/goliatone/go-bake/pkg/observability"
	"github.com/goliatone/go-bake/pkg/render"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// Server serves template previews.
type Server struct {
	app       *fiber.App
	engine    *render.Engine
	logger    *zap.Logger
	providers *observability.Providers
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProviders enables the /debug/metrics route.
func WithProviders(p *observability.Providers) Option {
	return func(s *Server) {
		s.providers = p
	}
}

// New builds the fiber app and registers routes.
func New(engine *render.Engine, options ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(s.requestID, s.logRequests)

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/render/*", s.handleRenderQuery)
	s.app.Post("/render/*", s.handleRenderBody)
	s.app.Get("/cache", s.handleCache)
	s.app.Delete("/cache", s.handlePurge)
	s.app.Delete("/cache/*", s.handleInvalidate)
	if s.providers != nil {
		s.app.Get("/debug/metrics", s.handleMetrics)
	}
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("preview server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting at most timeout for open requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *Server) requestID(c *fiber.Ctx) error {
	rid := strings.TrimSpace(c.Get(RequestIDHeader))
	if rid == "" {
		rid = uuid.NewString()
	}
	c.Locals(logger.RequestIDKey, rid)
	c.Set(RequestIDHeader, rid)
	return c.Next()
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	l := logger.WithRequestID(s.logger, c)
	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		l.Warn("request failed", append(fields, zap.Error(err))...)
		return err
	}
	l.Info("request", append(fields, zap.Int("status", c.Response().StatusCode()))...)
	return nil
}

func (s *Server) handleRenderQuery(c *fiber.Ctx) error {
	m := model.Model{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		m[string(key)] = string(value)
	})
	return s.render(c, m)
}

func (s *Server) handleRenderBody(c *fiber.Ctx) error {
	var body map[string]any
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "body must be a JSON object")
		}
	}
	return s.render(c, model.Model(body))
}

func (s *Server) render(c *fiber.Ctx, m model.Model) error {
	name := strings.TrimSpace(c.Params("*"))
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "template name is required")
	}
	out, err := s.engine.RenderString(c.UserContext(), m, name)
	if err != nil {
		return err
	}
	c.Type(contentType(name))
	return c.SendString(out)
}

func (s *Server) handleCache(c *fiber.Ctx) error {
	stats := s.engine.CacheStats()
	return c.JSON(fiber.Map{
		"templates": s.engine.Cached(),
		"stats": fiber.Map{
			"hits":     stats.Hits,
			"misses":   stats.Misses,
			"compiles": stats.Compiles,
		},
	})
}

func (s *Server) handlePurge(c *fiber.Ctx) error {
	s.engine.Purge()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleInvalidate(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("*"))
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "template name is required")
	}
	s.engine.Invalidate(name)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	points, err := s.providers.Snapshot(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"metrics": points})
}

// handleError maps render failures to status codes and writes a JSON body.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": err.Error()}

	var fe *fiber.Error
	var re *render.RenderingError
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		body["error"] = fe.Message
	case errors.As(err, &re):
		body["template"] = re.Template
		body["kind"] = string(re.Kind)
		switch re.Kind {
		case render.KindSourceNotFound:
			status = fiber.StatusNotFound
		case render.KindCanceled:
			status = fiber.StatusServiceUnavailable
		}
	}
	if rid, ok := c.Locals(logger.RequestIDKey).(string); ok {
		body["request_id"] = rid
	}
	return c.Status(status).JSON(body)
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".json"):
		return "json"
	case strings.HasSuffix(name, ".xml"):
		return "xml"
	case strings.HasSuffix(name, ".txt"):
		return "txt"
	default:
		return "html"
	}
}
