package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/wallet"
)

// RegisterWalletRoutes wires wallet read endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, verified fiber.Handler) {
	r.Get("/user/transaction-history", verified, h.TransactionHistory)
}
