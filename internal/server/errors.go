package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/auth"
	"github.com/airtime-queen/airtime_queen/internal/challenge"
	"github.com/airtime-queen/airtime_queen/internal/identity"
	"github.com/airtime-queen/airtime_queen/internal/merchant"
	"github.com/airtime-queen/airtime_queen/internal/middleware"
	"github.com/airtime-queen/airtime_queen/internal/passkey"
	"github.com/airtime-queen/airtime_queen/internal/phone"
	"github.com/airtime-queen/airtime_queen/internal/proxy"
	"github.com/airtime-queen/airtime_queen/internal/verification"
	"github.com/airtime-queen/airtime_queen/internal/wallet"
)

const internalErrorMessage = "Internal server error"

type errorKind struct {
	err     error
	status  int
	message string
}

// errorTable is the single mapping from domain errors to client responses.
// Order matters: the first match wins.
var errorTable = []errorKind{
	{phone.ErrPhoneNumberRequired, http.StatusBadRequest, "Phone number is required."},
	{phone.ErrInvalidPhoneNumber, http.StatusBadRequest, "Invalid phone number."},

	{challenge.ErrNotFound, http.StatusNotFound, "Challenge not found"},
	{challenge.ErrInvalidNonce, http.StatusBadRequest, "Invalid nonce"},

	{identity.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{identity.ErrPhoneNumberRegistered, http.StatusBadRequest, "Phone number already registered and verified"},
	{identity.ErrDuplicatePhoneNumber, http.StatusBadRequest, "Phone number already exists"},
	{identity.ErrDuplicateWalletAddress, http.StatusBadRequest, "Wallet address already exists"},
	{identity.ErrDuplicatePasskey, http.StatusBadRequest, "Passkey already registered"},
	{identity.ErrInvalidPasskey, http.StatusBadRequest, "Passkey id and public key are required"},
	{identity.ErrInvalidWalletAddress, http.StatusBadRequest, "Invalid wallet address"},
	{passkey.ErrInvalidPublicKey, http.StatusBadRequest, "Invalid passkey public key"},

	{verification.ErrInvalidCode, http.StatusBadRequest, "Invalid verification code"},
	{verification.ErrPhoneMismatch, http.StatusBadRequest, "Phone number does not match your account"},
	{verification.ErrAlreadyVerified, http.StatusBadRequest, "User already verified"},
	{verification.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many attempts, request a new code"},
	{verification.ErrResendThrottled, http.StatusTooManyRequests, "Code recently sent, try again later"},

	{merchant.ErrRegionUnavailable, http.StatusBadRequest, "No products available in your region yet."},
	{proxy.ErrUnsupportedChain, http.StatusBadRequest, "Unsupported chain"},
	{proxy.ErrUpstream, http.StatusInternalServerError, internalErrorMessage},
	{wallet.ErrUpstream, http.StatusInternalServerError, internalErrorMessage},
}

// ErrorHandler translates handler errors into JSON {error} responses.
// Unclassified errors are logged and reported as a generic 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request error",
				slog.String("request_id", middleware.RequestIDFrom(c)),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", err))
		}
		return c.Status(status).JSON(fiber.Map{"error": message})
	}
}

func classify(err error) (int, string) {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized, authErr.Message
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		if fiberErr.Code >= http.StatusInternalServerError {
			return fiberErr.Code, internalErrorMessage
		}
		return fiberErr.Code, fiberErr.Message
	}
	for _, kind := range errorTable {
		if errors.Is(err, kind.err) {
			return kind.status, kind.message
		}
	}
	return http.StatusInternalServerError, internalErrorMessage
}
