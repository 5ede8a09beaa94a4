package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/flash-wallet/flash_ledger/internal/config"
	"github.com/flash-wallet/flash_ledger/internal/events"
	"github.com/flash-wallet/flash_ledger/internal/obs"
	"github.com/flash-wallet/flash_ledger/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// Backends are the optional external systems the server talks to. Nil
// members fall back to in-memory implementations in development.
type Backends struct {
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Publisher events.Publisher
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, b Backends, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler,
	})

	reg := prometheus.NewRegistry()
	deps := routes.Deps{
		Cfg:       cfg,
		DB:        b.DB,
		Cache:     b.Cache,
		Logger:    logger,
		Metrics:   obs.NewMetrics(reg),
		Registry:  reg,
		Publisher: b.Publisher,
	}
	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// errorHandler renders every error as {"error": message}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
