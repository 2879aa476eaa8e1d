package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/auth"
)

// RequireSession authorizes the request with a bearer token, falling back to
// the session cookie. Rejected requests never reach the next handler.
func RequireSession(gate *auth.Gate, requireVerified bool) fiber.Handler {
	sessions := gate.Sessions()
	return func(c *fiber.Ctx) error {
		token := auth.ReadBearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(sessions.CookieName())
		}

		principal, err := gate.Authorize(c.UserContext(), token, requireVerified)
		if err != nil {
			return err
		}
		if principal.Session.Fresh {
			c.Cookie(sessions.Cookie(principal.Session))
		}

		auth.SetPrincipal(c, principal)
		return c.Next()
	}
}
