// Package api wires the HTTP surface: blog and auth controllers, the error
// handler and the health and metrics endpoints.
package api

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-blog/auth"
	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-blog/metrics"
	"github.com/goliatone/go-blog/middleware/jwtware"
	"github.com/goliatone/go-blog/persistence"
	"github.com/goliatone/go-blog/repository"
	"github.com/goliatone/go-blog/views"
)

const accessLogFormat = "[${time}] ${respHeader:X-Request-ID} ${status} - ${latency} ${method} ${path}\n"

type Config struct {
	Debug  bool
	Logger logging.Logger
	// AccessLog receives one line per request. Nil disables it.
	AccessLog io.Writer

	Sessions persistence.Provider
	Repo     repository.Manager
	Auther   *auth.Auther
	Gate     jwtware.Authenticator
	Notifier views.Notifier
	Metrics  *metrics.Metrics
	Pingers  []Pinger

	CreateRequiresAuth bool
	DefaultOwnerID     int64
	Now                func() time.Time
}

// New builds the fiber app with every route mounted
func New(cfg Config) *fiber.App {
	if cfg.Sessions == nil {
		panic("Missing persistence.Provider in api config...")
	}
	if cfg.Gate == nil {
		panic("Missing jwtware.Authenticator in api config...")
	}

	app := fiber.New(fiber.Config{
		AppName:               "blogd",
		ErrorHandler:          ErrorHandler(cfg.Logger),
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	if cfg.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			Format: accessLogFormat,
			Output: cfg.AccessLog,
		}))
	}
	if cfg.Metrics != nil {
		app.Use(cfg.Metrics.Middleware())
	}
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Debug}))

	gate := jwtware.New(jwtware.Config{Authenticator: cfg.Gate})
	scope := persistence.Scope(cfg.Sessions)

	RegisterBlogRoutes(app, NewBlogController(
		WithBlogRepository(cfg.Repo),
		WithViewNotifier(cfg.Notifier),
		WithBlogOwnership(cfg.CreateRequiresAuth, cfg.DefaultOwnerID),
		WithBlogLogger(cfg.Logger),
		WithBlogClock(cfg.Now),
	), gate, scope)

	RegisterAuthRoutes(app, NewAuthController(
		WithAuther(cfg.Auther),
		WithAuthLogger(cfg.Logger),
		WithAuthDebug(cfg.Debug),
	), scope)

	app.Get("/healthz", Health(cfg.Pingers...)).Name("healthz")

	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler()).Name("metrics")
	}

	return app
}
