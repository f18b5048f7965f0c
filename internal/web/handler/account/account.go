// Package account provides the HTTP surface for account maintenance:
// password changes, password recovery and explicit role re-resolution.
package account

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/alexandrevcalmon/authcore/internal/auth"
	"github.com/alexandrevcalmon/authcore/internal/config"
	"github.com/alexandrevcalmon/authcore/internal/web/handler"
)

const (
	// ChangePasswordPath is the path of the password change endpoint.
	ChangePasswordPath = "/auth/change-password"
	// ResetPasswordPath is the path of the password recovery endpoint.
	ResetPasswordPath = "/auth/reset-password"
	// RefreshRolePath is the path of the role re-resolution endpoint.
	RefreshRolePath = "/auth/refresh-role"
)

// Service is the account handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	engine *auth.Engine
}

// Handler is the account handler.
var Handler = Service{}

// Init initializes the account handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *auth.Engine) error {
	if app == nil || cfg == nil || engine == nil {
		return errors.New(handler.ErrNilACEFatalLogMsg)
	}

	s.cfg = cfg
	s.engine = engine

	app.Post(ChangePasswordPath, s.ChangePassword)
	app.Post(ResetPasswordPath, s.ResetPassword)
	app.Post(RefreshRolePath, s.RefreshRole)

	return nil
}

// ChangePassword sets a new password for the current user and completes
// any deferred role population.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	body := new(struct {
		NewPassword string `json:"newPassword"`
	})
	if err := c.BodyParser(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err := s.engine.ChangePassword(c.Context(), body.NewPassword)

	switch {
	case err == nil:
		return c.JSON(handler.StateFromSnapshot(s.engine.State()))
	case errors.Is(err, auth.ErrMissingCredentials):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNotAuthenticated):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	default:
		log.Error().Err(err).Msg("password change failed")

		return fiber.NewError(fiber.StatusBadGateway, "password change failed")
	}
}

// ResetPassword triggers the provider's password recovery email flow. The
// response is the same whether or not the email is known, so the endpoint
// cannot be used to enumerate accounts.
func (s *Service) ResetPassword(c *fiber.Ctx) error {
	body := new(struct {
		Email string `json:"email"`
	})
	if err := c.BodyParser(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.engine.ResetPassword(c.Context(), body.Email); err != nil {
		if errors.Is(err, auth.ErrMissingCredentials) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		log.Warn().Err(err).Msg("password recovery request failed")
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// RefreshRole re-runs the role resolution cascade for the current user.
func (s *Service) RefreshRole(c *fiber.Ctx) error {
	state, err := s.engine.RefreshUserRole(c.Context())
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		log.Error().Err(err).Msg("role refresh failed")

		return fiber.NewError(fiber.StatusInternalServerError, "role refresh failed")
	}

	return c.JSON(handler.StateFromSnapshot(state))
}
