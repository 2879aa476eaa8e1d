package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/verification"
)

// RegisterVerificationRoutes wires phone verification. A session is required
// but the user is by definition not verified yet.
func RegisterVerificationRoutes(r fiber.Router, h *verification.Handler, signedIn, limiter fiber.Handler) {
	r.Post("/sign-up/phone-verify", signedIn, limiter, h.Verify)
}
