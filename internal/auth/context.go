package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/identity"
)

const principalKey = "auth_principal"

// SetPrincipal attaches the authenticated caller to the request.
func SetPrincipal(c *fiber.Ctx, p Principal) {
	c.Locals(principalKey, p)
}

// PrincipalFrom returns the caller attached by the session middleware.
func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}

// UserFrom returns the authenticated user or ErrInvalidSession when the route
// was not protected.
func UserFrom(c *fiber.Ctx) (identity.User, error) {
	p, ok := PrincipalFrom(c)
	if !ok {
		return identity.User{}, ErrInvalidSession
	}
	return p.User, nil
}
