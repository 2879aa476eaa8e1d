package auth

import "errors"

// AuthError rejects a request before the protected handler runs. Its message
// is safe to return to the client.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

var (
	// ErrInvalidSession covers missing, unknown and expired sessions.
	ErrInvalidSession = &AuthError{Message: "Invalid session"}
	// ErrUserNotVerified is returned when a route needs a verified phone number.
	ErrUserNotVerified = &AuthError{Message: "User not verified"}
	// ErrInvalidCredential rejects a passkey assertion at login.
	ErrInvalidCredential = &AuthError{Message: "Invalid credential"}

	// ErrSessionNotFound is returned by session stores for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
)
