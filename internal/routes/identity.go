package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/identity"
)

// RegisterIdentityRoutes wires phone number and wallet address lookups.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler, verified fiber.Handler) {
	r.Get("/resolve-address", verified, h.ResolveAddress)
	r.Get("/resolve-number", verified, h.ResolveNumber)
}
