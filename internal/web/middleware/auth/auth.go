package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/alexandrevcalmon/authcore/internal/web/handler"
	"github.com/alexandrevcalmon/authcore/internal/web/session"
)

// CurrentSessionKey is the fiber.Locals key holding the web session data.
const CurrentSessionKey = "CurrentSession"

// openPaths are reachable without a web session.
var openPaths = []string{
	"/auth/login",
	"/auth/signup",
	"/auth/logout",
	"/auth/reset-password",
	"/healthz",
	"/metrics",
}

// Middleware is a Fiber middleware that checks for a valid web session.
func Middleware(c *fiber.Ctx) error {
	if isOpenPath(c) {
		return c.Next()
	}

	sessionID := c.Cookies(handler.SessionCookie)
	if sessionID == "" {
		return unauthorized(c)
	}

	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil || sessData.UserID == "" {
		return unauthorized(c)
	}

	c.Locals(CurrentSessionKey, sessData)

	return c.Next()
}

func isOpenPath(c *fiber.Ctx) bool {
	path := strings.ToLower(c.Path())

	for _, open := range openPaths {
		if strings.HasPrefix(path, open) {
			return true
		}
	}

	return false
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "not authenticated",
	})
}
