package wallet

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/auth"
	"github.com/airtime-queen/airtime_queen/internal/phone"
)

// Handler exposes wallet read endpoints.
type Handler struct {
	history *HistoryService
	phones  phone.Normalizer
}

// NewHandler wires wallet endpoints.
func NewHandler(history *HistoryService, phones phone.Normalizer) *Handler {
	return &Handler{history: history, phones: phones}
}

// TransactionHistory returns the caller's labelled transfers. Pass both
// blockNumber and index from a previous nextPageParams to page.
func (h *Handler) TransactionHistory(c *fiber.Ctx) error {
	user, err := auth.UserFrom(c)
	if err != nil {
		return err
	}
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	result, err := h.history.History(c.UserContext(), user.WalletAddress, h.phones.Region(user.PhoneNumber), page)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func pageFromQuery(c *fiber.Ctx) (*PageParams, error) {
	block, index := c.Query("blockNumber"), c.Query("index")
	if block == "" && index == "" {
		return nil, nil
	}
	if block == "" || index == "" {
		return nil, fiber.NewError(http.StatusBadRequest, "blockNumber and index must be provided together")
	}
	b, err := strconv.ParseInt(block, 10, 64)
	if err != nil || b < 0 {
		return nil, fiber.NewError(http.StatusBadRequest, "Invalid blockNumber")
	}
	i, err := strconv.ParseInt(index, 10, 64)
	if err != nil || i < 0 {
		return nil, fiber.NewError(http.StatusBadRequest, "Invalid index")
	}
	return &PageParams{BlockNumber: b, Index: i}, nil
}
