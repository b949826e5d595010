package server

import (
	"errors"
	"fmt"
	"time"

	"pixelpanic/internal/core/config"
	"pixelpanic/internal/core/logger"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	_ "pixelpanic/docs/swagger"
)

// RequestIDHeader carries the per-request id, echoed as ray_id in error bodies.
const RequestIDHeader = "X-Ray-ID"

// MaxUploadBytes bounds multipart bodies (technician photos).
const MaxUploadBytes = 10 << 20

// Server holds the Fiber application and configuration.
type Server struct {
	// App is the main Fiber application instance.
	App *fiber.App
	cfg *config.AppConfig
}

// New creates a new Server instance with configured middleware.
func New(cfg *config.AppConfig) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "pixelpanic",
		BodyLimit:             MaxUploadBytes + 1<<20,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Header: RequestIDHeader,
	}))

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Get(),
		Fields: []string{"requestId", "status", "method", "path", "latency"},
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/swagger/*", swagger.HandlerDefault)

	if cfg.Uploads.Dir != "" {
		app.Static("/uploads", cfg.Uploads.Dir, fiber.Static{ByteRange: true})
	}

	return &Server{
		App: app,
		cfg: cfg,
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	logger.Get().Info("Starting server", zap.String("address", addr))
	return s.App.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests up to timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.App.ShutdownWithTimeout(timeout)
}

// RayID returns the request id assigned by the requestid middleware.
func RayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return "unknown"
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		msg = fe.Message
	}

	if status >= fiber.StatusInternalServerError {
		logger.Get().Error("Unhandled request error",
			zap.String("path", c.Path()),
			zap.String("ray_id", RayID(c)),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(fiber.Map{
		"message": msg,
		"ray_id":  RayID(c),
	})
}
