// Package web is the HTTP surface of the auth engine: a JSON API over
// fiber, a thin consumer of internal/auth with no auth logic of its own.
package web

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/alexandrevcalmon/authcore/internal/auth"
	"github.com/alexandrevcalmon/authcore/internal/config"
	fiberlogger "github.com/alexandrevcalmon/authcore/internal/logger/adapter/fiber"
	"github.com/alexandrevcalmon/authcore/internal/web/handler"
	"github.com/alexandrevcalmon/authcore/internal/web/handler/account"
	"github.com/alexandrevcalmon/authcore/internal/web/handler/login"
	"github.com/alexandrevcalmon/authcore/internal/web/handler/logout"
	"github.com/alexandrevcalmon/authcore/internal/web/handler/sessioninfo"
	authmiddleware "github.com/alexandrevcalmon/authcore/internal/web/middleware/auth"
)

// CheckAliveURI is the liveness endpoint path.
const CheckAliveURI = "/healthz"

// Service represents the web service.
type Service struct {
	App   *fiber.App
	cfg   *config.Config
	alive atomic.Bool
}

// Start starts the web service on the given address and blocks until the
// server stops.
func (s *Service) Start(addr string) error {
	s.alive.Store(true)

	if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops the web service gracefully. For reverse proxies the
// liveness endpoint fails first, so a load balancer drains this instance
// before the listener closes.
func (s *Service) Shutdown() {
	s.alive.Store(false)

	if s.cfg.Webserver.ShutDownTime > 0 {
		log.Info().Msgf(
			"graceful shutdown: failing health checks for %d seconds before closing",
			s.cfg.Webserver.ShutDownTime,
		)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}

// New creates a new web service over the given auth engine.
func New(cfg *config.Config, engine *auth.Engine) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if engine == nil {
		return nil, errors.New("engine cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize:        8192,
			AppName:               cfg.Title,
			CaseSensitive:         true,
			Prefork:               false,
			Immutable:             true,
			DisableStartupMessage: !cfg.DevMode,
			ErrorHandler:          jsonErrorHandler,
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
	}

	// access logging first so every request is covered
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAliveURI,
	}))

	app.Get(CheckAliveURI, service.checkAlive)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(authmiddleware.Middleware)

	for name, h := range map[string]handler.Service{
		"login":       &login.Handler,
		"logout":      &logout.Handler,
		"sessioninfo": &sessioninfo.Handler,
		"account":     &account.Handler,
	} {
		if err := h.Init(app, cfg, engine); err != nil {
			return nil, errors.New("failed to init " + name + " handler: " + err.Error())
		}
	}

	return service, nil
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// jsonErrorHandler renders fiber errors as JSON, matching the rest of the
// surface.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
