// Package sessioninfo exposes the current auth state snapshot. Reading it
// also validates the session, so a near-expiry session is refreshed as a
// side effect of the client asking about it.
package sessioninfo

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/alexandrevcalmon/authcore/internal/auth"
	"github.com/alexandrevcalmon/authcore/internal/config"
	"github.com/alexandrevcalmon/authcore/internal/web/handler"
)

// Path is the path of the session info endpoint.
const Path = "/auth/session"

// Service is the session info handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	engine *auth.Engine
}

// Handler is the session info handler.
var Handler = Service{}

// Init initializes the session info handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *auth.Engine) error {
	if app == nil || cfg == nil || engine == nil {
		return errors.New(handler.ErrNilACEFatalLogMsg)
	}

	s.cfg = cfg
	s.engine = engine

	app.Get(Path, s.Get)

	return nil
}

// Get returns the current auth state, validating (and if needed
// refreshing) the engine session first.
func (s *Service) Get(c *fiber.Ctx) error {
	s.engine.Validate(c.Context())
	s.engine.WaitSettled()

	return c.JSON(handler.StateFromSnapshot(s.engine.State()))
}
