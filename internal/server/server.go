package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	"github.com/airtime-queen/airtime_queen/internal/config"
	"github.com/airtime-queen/airtime_queen/internal/identity"
	"github.com/airtime-queen/airtime_queen/internal/notification"
	"github.com/airtime-queen/airtime_queen/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app   *fiber.App
	cfg   config.Config
	db    *pgxpool.Pool
	cache *redis.Client
}

// Option customises the dependencies handed to the routes.
type Option func(*routes.Deps)

// WithDeriver sets the wallet address deriver used at sign-up.
func WithDeriver(d identity.AddressDeriver) Option {
	return func(deps *routes.Deps) { deps.Deriver = d }
}

// WithNotifier replaces the SMS sender chosen from configuration.
func WithNotifier(n notification.Notifier) Option {
	return func(deps *routes.Deps) { deps.Notifier = n }
}

// WithHTTPClient sets the client used for upstream calls.
func WithHTTPClient(c *fasthttp.Client) Option {
	return func(deps *routes.Deps) { deps.HTTPClient = c }
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger, opts ...Option) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: ErrorHandler(logger),
	})

	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}
	for _, opt := range opts {
		opt(&deps)
	}
	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, db: db, cache: cache}, nil
}

// App exposes the Fiber application, mainly for in-process tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
