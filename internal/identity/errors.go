package identity

import "errors"

var (
	// ErrUserNotFound is returned when no user matches a lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicatePhoneNumber means a verified user already owns the number.
	ErrDuplicatePhoneNumber = errors.New("phone number already exists")
	// ErrDuplicateWalletAddress means another user already owns the wallet address.
	ErrDuplicateWalletAddress = errors.New("wallet address already exists")
	// ErrDuplicatePasskey means the passkey credential is already registered.
	ErrDuplicatePasskey = errors.New("passkey already registered")
	// ErrInvalidPasskey rejects empty passkey fields at sign-up.
	ErrInvalidPasskey = errors.New("passkey id and public key are required")
	// ErrInvalidWalletAddress rejects lookups by malformed addresses.
	ErrInvalidWalletAddress = errors.New("invalid wallet address")
)
