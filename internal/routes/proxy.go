package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/merchant"
	"github.com/airtime-queen/airtime_queen/internal/proxy"
)

// RegisterMerchantRoutes wires the merchant proxy. Products must be
// registered ahead of the wildcard.
func RegisterMerchantRoutes(r fiber.Router, h *merchant.Handler, verified, idempotency fiber.Handler) {
	group := r.Group("/merchant")
	group.Get("/products", verified, h.Products)
	group.Get("/*", h.Get)
	group.Post("/*", verified, idempotency, h.Post)
}

// RegisterBundlerRoutes wires the bundler JSON-RPC proxy.
func RegisterBundlerRoutes(r fiber.Router, f *proxy.Forwarder, throttle fiber.Handler) {
	r.Post("/bundler/*", throttle, f.Handler())
}
