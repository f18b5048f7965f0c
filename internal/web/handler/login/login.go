package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/alexandrevcalmon/authcore/internal/auth"
	"github.com/alexandrevcalmon/authcore/internal/config"
	"github.com/alexandrevcalmon/authcore/internal/web/handler"
	"github.com/alexandrevcalmon/authcore/internal/web/session"
)

const (
	// Path is the path of the login endpoint.
	Path = "/auth/login"
	// SignUpPath is the path of the registration endpoint.
	SignUpPath = "/auth/signup"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	engine *auth.Engine
}

// Handler is the login handler.
var Handler = Service{}

// credentials is the request payload for login and signup.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *auth.Engine) error {
	if app == nil || cfg == nil || engine == nil {
		return errors.New(handler.ErrNilACEFatalLogMsg)
	}

	s.cfg = cfg
	s.engine = engine

	app.Post(Path, s.Post)
	app.Post(SignUpPath, s.SignUp)

	return nil
}

// Post handles a password login.
func (s *Service) Post(c *fiber.Ctx) error {
	body := new(credentials)
	if err := c.BodyParser(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, ErrInvalidBody.Error())
	}

	state, err := s.engine.SignIn(c.Context(), body.Email, body.Password, auth.Role(body.Role))
	if err != nil {
		return s.mapSignInError(err)
	}

	if err := s.bindSession(c, state); err != nil {
		log.Error().Err(err).Msg("failed to establish web session after login")

		return fiber.NewError(fiber.StatusInternalServerError, ErrInternalServerError.Error())
	}

	return c.JSON(handler.StateFromSnapshot(state))
}

// SignUp handles a registration. The role in the payload seeds the identity
// metadata until the first role resolution persists an authoritative one.
func (s *Service) SignUp(c *fiber.Ctx) error {
	body := new(credentials)
	if err := c.BodyParser(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, ErrInvalidBody.Error())
	}

	state, err := s.engine.SignUp(c.Context(), body.Email, body.Password, auth.Role(body.Role))
	if err != nil {
		return s.mapSignInError(err)
	}

	if err := s.bindSession(c, state); err != nil {
		log.Error().Err(err).Msg("failed to establish web session after signup")

		return fiber.NewError(fiber.StatusInternalServerError, ErrInternalServerError.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(handler.StateFromSnapshot(state))
}

func (s *Service) mapSignInError(err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return fiber.NewError(fiber.StatusBadRequest, auth.ErrMissingCredentials.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrProducerAccessDenied):
		return fiber.NewError(fiber.StatusForbidden, ErrProducerOnly.Error())
	default:
		log.Error().Err(err).Msg("login failed")

		return fiber.NewError(fiber.StatusBadGateway, ErrInternalServerError.Error())
	}
}

// bindSession creates the web session record and sets the cookie.
func (s *Service) bindSession(c *fiber.Ctx, state auth.Snapshot) error {
	if state.User == nil {
		return errors.New("no user in settled auth state")
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return err
	}

	data := &session.Data{
		UserID: state.User.ID,
		Email:  state.User.Email,
		Role:   string(state.Role),
	}

	if err := data.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		return err
	}

	cookie := &fiber.Cookie{
		Name:     handler.SessionCookie,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookie.Secure = false
	}

	c.Cookie(cookie)

	return nil
}
