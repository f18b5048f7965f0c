// Package logout provides the HTTP surface for ending a session. Logout
// mirrors the engine's sign-out contract: it always succeeds from the
// client's perspective, whatever the provider said.
package logout

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/alexandrevcalmon/authcore/internal/auth"
	"github.com/alexandrevcalmon/authcore/internal/config"
	"github.com/alexandrevcalmon/authcore/internal/web/handler"
	"github.com/alexandrevcalmon/authcore/internal/web/session"
)

// Path is the path of the logout endpoint.
const Path = "/auth/logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	engine *auth.Engine
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *auth.Engine) error {
	if app == nil || cfg == nil || engine == nil {
		return errors.New(handler.ErrNilACEFatalLogMsg)
	}

	s.cfg = cfg
	s.engine = engine

	app.Post(Path, s.Logout)

	return nil
}

// Logout ends the engine session and the web session. Always returns 200
// with the cleared state.
func (s *Service) Logout(c *fiber.Ctx) error {
	//nolint:errcheck // SignOut never returns a non-nil error
	s.engine.SignOut(c.Context())

	if sessionID := c.Cookies(handler.SessionCookie); sessionID != "" {
		if err := session.Delete(sessionID); err != nil {
			log.Warn().Err(err).Msg("failed to delete web session on logout")
		}
	}

	s.expireAuthCookies(c)

	return c.JSON(handler.StateFromSnapshot(s.engine.State()))
}

// expireAuthCookies clears the session cookie plus any stray cookie whose
// name marks it as auth material, so a half-torn-down client converges.
func (s *Service) expireAuthCookies(c *fiber.Ctx) {
	names := []string{handler.SessionCookie}

	c.Request().Header.VisitAllCookie(func(key, _ []byte) {
		name := string(key)
		lower := strings.ToLower(name)

		if name != handler.SessionCookie &&
			(strings.Contains(lower, "auth") || strings.Contains(lower, "session")) {
			names = append(names, name)
		}
	})

	for _, name := range names {
		cookie := &fiber.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Secure:   true,
			HTTPOnly: true,
			SameSite: "Lax",
		}

		if s.cfg.DevMode {
			cookie.Secure = false
		}

		c.Cookie(cookie)
	}
}
