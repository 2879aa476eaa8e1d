package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/auth"
)

// AuthLimits are the abuse limiters placed in front of credential endpoints.
type AuthLimits struct {
	Login  fiber.Handler
	SignUp fiber.Handler
}

// RegisterAuthRoutes wires challenge, sign-up, login and session endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, limits AuthLimits, signedIn fiber.Handler) {
	r.Post("/challenge", h.Challenge)
	r.Post("/sign-up", limits.SignUp, h.SignUp)
	r.Get("/sign-up", h.CheckAvailability)
	r.Get("/phone-number", h.CheckAvailability)
	r.Post("/login", limits.Login, h.Login)

	r.Post("/logout", signedIn, h.Logout)
	r.Get("/user", signedIn, h.Me)
}
