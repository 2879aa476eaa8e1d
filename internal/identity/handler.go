package identity

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/phone"
)

// Handler exposes directory lookups between phone numbers and wallets.
type Handler struct {
	service *Service
	phones  phone.Normalizer
}

// NewHandler wires the directory endpoints.
func NewHandler(service *Service, phones phone.Normalizer) *Handler {
	return &Handler{service: service, phones: phones}
}

// ResolveAddress maps ?phoneNumber= to the owner's wallet address.
func (h *Handler) ResolveAddress(c *fiber.Ctx) error {
	raw := c.Query("phoneNumber")
	if strings.TrimSpace(raw) == "" {
		return phone.ErrPhoneNumberRequired
	}
	number, err := h.phones.Normalize(raw)
	if err != nil {
		return err
	}
	address, err := h.service.ResolveAddress(c.UserContext(), number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": fiber.Map{"walletAddress": address}})
}

// ResolveNumber maps ?walletAddress= to the owner's phone number.
func (h *Handler) ResolveNumber(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("walletAddress"))
	if raw == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Wallet address is required")
	}
	if !common.IsHexAddress(raw) {
		return ErrInvalidWalletAddress
	}
	number, err := h.service.ResolveNumber(c.UserContext(), common.HexToAddress(raw).Hex())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": fiber.Map{"phoneNumber": number}})
}
