package merchant

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/auth"
	"github.com/airtime-queen/airtime_queen/internal/phone"
	"github.com/airtime-queen/airtime_queen/internal/proxy"
)

// ProductRegion is the only region the merchant sells into.
const ProductRegion = "ZA"

// ErrRegionUnavailable is returned when the caller's phone region has no products.
var ErrRegionUnavailable = errors.New("no products available in your region yet")

// Handler proxies merchant routes.
type Handler struct {
	products *proxy.Forwarder
	api      *proxy.Forwarder
	signer   *TrustSigner
	phones   phone.Normalizer
}

// NewHandler wires the products forwarder (fixed URL), the general API
// forwarder (base URL plus path tail) and the trust token signer.
func NewHandler(products, api *proxy.Forwarder, signer *TrustSigner, phones phone.Normalizer) *Handler {
	return &Handler{products: products, api: api, signer: signer, phones: phones}
}

// Products lists purchasable bundles for users in the supported region.
func (h *Handler) Products(c *fiber.Ctx) error {
	user, err := auth.UserFrom(c)
	if err != nil {
		return err
	}
	if h.phones.Region(user.PhoneNumber) != ProductRegion {
		return ErrRegionUnavailable
	}
	return h.products.Forward(c, nil)
}

// Get relays read-only merchant calls untouched.
func (h *Handler) Get(c *fiber.Ctx) error {
	return h.api.Forward(c, nil)
}

// Post relays a merchant call with a trust token naming the caller.
func (h *Handler) Post(c *fiber.Ctx) error {
	user, err := auth.UserFrom(c)
	if err != nil {
		return err
	}
	token, err := h.signer.Sign(user.ID, user.WalletAddress)
	if err != nil {
		return err
	}
	return h.api.Forward(c, map[string]string{TrustHeader: token})
}
