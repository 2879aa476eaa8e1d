package auth

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/challenge"
	"github.com/airtime-queen/airtime_queen/internal/identity"
	"github.com/airtime-queen/airtime_queen/internal/passkey"
	"github.com/airtime-queen/airtime_queen/internal/phone"
)

// Handler exposes challenge, sign-up, login, logout and current-user endpoints.
type Handler struct {
	challenges challenge.Store
	users      *identity.Service
	sessions   *SessionService
	phones     phone.Normalizer
}

// NewHandler wires the auth endpoints.
func NewHandler(challenges challenge.Store, users *identity.Service, sessions *SessionService, phones phone.Normalizer) *Handler {
	return &Handler{challenges: challenges, users: users, sessions: sessions, phones: phones}
}

// UserView is the client representation of a user.
type UserView struct {
	identity.User
	CountryCode string `json:"countryCode"`
}

// NewUserView decorates u with the region of its phone number.
func NewUserView(u identity.User, phones phone.Normalizer) UserView {
	return UserView{User: u, CountryCode: phones.Region(u.PhoneNumber)}
}

func (h *Handler) view(u identity.User) UserView {
	return NewUserView(u, h.phones)
}

type challengeRequest struct {
	Nonce string `json:"nonce"`
}

// Challenge issues a fresh challenge for the client's nonce.
func (h *Handler) Challenge(c *fiber.Ctx) error {
	var req challengeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}
	value, err := h.challenges.Issue(c.UserContext(), req.Nonce)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"challenge": value})
}

type signUpRequest struct {
	PhoneNumber      string `json:"phoneNumber"`
	PasskeyID        string `json:"passkeyId"`
	PasskeyPublicKey string `json:"passkeyPublicKey"`
	Nonce            string `json:"nonce"`
}

type sessionResponse struct {
	Success bool     `json:"success"`
	User    UserView `json:"user"`
	Session Session  `json:"session"`
}

// SignUp registers a passkey for a phone number and starts a session.
func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}
	number, err := h.phones.Normalize(req.PhoneNumber)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	if _, err := h.challenges.Consume(ctx, req.Nonce); err != nil {
		return err
	}

	user, err := h.users.SignUp(ctx, identity.SignUpRequest{
		PhoneNumber:      number,
		PasskeyID:        req.PasskeyID,
		PasskeyPublicKey: req.PasskeyPublicKey,
	})
	if err != nil {
		return err
	}
	return h.startSession(c, user)
}

// CheckAvailability reports whether a phone number can still be registered.
func (h *Handler) CheckAvailability(c *fiber.Ctx) error {
	raw := c.Query("phoneNumber")
	if strings.TrimSpace(raw) == "" {
		return phone.ErrPhoneNumberRequired
	}
	number, err := h.phones.Normalize(raw)
	if err != nil {
		return err
	}
	if err := h.users.CheckAvailability(c.UserContext(), number); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"available": true})
}

type loginRequest struct {
	Credential passkey.Assertion `json:"credential"`
	Nonce      string            `json:"nonce"`
}

// Login verifies a passkey assertion over the nonce's challenge. The
// challenge is consumed whether or not verification succeeds.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}
	ctx := c.UserContext()
	value, err := h.challenges.Consume(ctx, req.Nonce)
	if err != nil {
		return err
	}
	challengeBytes, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return err
	}

	user, err := h.users.Repository().FindByPasskeyID(ctx, req.Credential.Raw.ID)
	if errors.Is(err, identity.ErrUserNotFound) {
		return ErrInvalidCredential
	}
	if err != nil {
		return err
	}
	key, err := passkey.ParsePublicKey(user.PasskeyPublicKey)
	if err != nil {
		return ErrInvalidCredential
	}
	if err := passkey.Verify(key, challengeBytes, req.Credential); err != nil {
		return ErrInvalidCredential
	}
	return h.startSession(c, user)
}

// Logout invalidates the caller's session and clears the cookie.
func (h *Handler) Logout(c *fiber.Ctx) error {
	p, ok := PrincipalFrom(c)
	if !ok {
		return ErrInvalidSession
	}
	if err := h.sessions.Invalidate(c.UserContext(), p.Session.ID); err != nil {
		return err
	}
	c.Cookie(h.sessions.BlankCookie())
	return c.JSON(fiber.Map{"success": true})
}

// Me returns the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := UserFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": h.view(user)})
}

func (h *Handler) startSession(c *fiber.Ctx, user identity.User) error {
	session, err := h.sessions.Create(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	c.Cookie(h.sessions.Cookie(session))
	return c.JSON(sessionResponse{Success: true, User: h.view(user), Session: session})
}
