package verification

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/auth"
	"github.com/airtime-queen/airtime_queen/internal/phone"
)

// Handler exposes the phone verification endpoint.
type Handler struct {
	service *Service
	phones  phone.Normalizer
}

// NewHandler wires the verification endpoint.
func NewHandler(service *Service, phones phone.Normalizer) *Handler {
	return &Handler{service: service, phones: phones}
}

type verifyRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
}

// Verify sends a code when the body has none, otherwise checks the code.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return phone.ErrPhoneNumberRequired
	}
	number, err := h.phones.Normalize(req.PhoneNumber)
	if err != nil {
		return err
	}
	user, err := auth.UserFrom(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	code := strings.TrimSpace(req.Code)
	if code == "" {
		if err := h.service.SendCode(ctx, user, number); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "sent": true})
	}

	verified, err := h.service.CheckCode(ctx, user, number, code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": auth.NewUserView(verified, h.phones)})
}
