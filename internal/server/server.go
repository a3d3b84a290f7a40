// Package server exposes the summarization workflow over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/chaz8081/gostt-summarizer/internal/ingest"
	"github.com/chaz8081/gostt-summarizer/internal/pipeline"
)

//go:embed static/index.html
var static embed.FS

// Runner is the part of the pipeline the routes drive.
type Runner interface {
	Transcribe(ctx context.Context, src ingest.Source) (string, error)
	Summarize(ctx context.Context, transcript string) (pipeline.Result, error)
}

// Options tunes the HTTP app.
type Options struct {
	BodyLimitMB int
	Version     string
}

// Server is the fiber app plus the collaborators its handlers use.
type Server struct {
	app     *fiber.App
	runner  Runner
	uploads *ingest.Uploads
	logger  *slog.Logger
	version string
}

// New builds the app and registers all routes.
func New(runner Runner, uploads *ingest.Uploads, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.BodyLimitMB
	if limit <= 0 {
		limit = 200
	}

	s := &Server{
		runner:  runner,
		uploads: uploads,
		logger:  logger,
		version: opts.Version,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "gostt-summarizer",
		BodyLimit:             limit << 20,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(s.logRequests)

	s.app.Get("/", s.handleIndex)
	s.app.Get("/health", s.handleHealth)
	s.app.Post("/upload", s.handleUpload)
	s.app.Post("/transcribe", s.handleTranscribe)
	s.app.Post("/summarize", s.handleSummarize)
	s.app.Post("/paste_text", s.handlePasteText)

	return s
}

// App returns the underlying fiber app (used by tests).
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if err != nil && errors.As(err, &fe) {
		status = fe.Code
	}

	rid, _ := c.Locals("requestid").(string)
	s.logger.Info("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"latency", time.Since(start).Round(time.Microsecond),
		"request_id", rid,
	)
	return err
}

// handleError renders errors that escape a handler (unknown routes,
// oversized bodies, panics) in the same JSON shape as handler errors.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("unhandled error", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	c.Type("html")
	return c.Send(page)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": s.version})
}
