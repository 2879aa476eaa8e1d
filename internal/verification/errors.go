package verification

import "errors"

var (
	// ErrInvalidCode is returned when a submitted code does not match.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrTooManyAttempts is returned once the attempt cap is reached.
	ErrTooManyAttempts = errors.New("too many verification attempts")
	// ErrResendThrottled is returned when a code was sent too recently.
	ErrResendThrottled = errors.New("verification code recently sent")
	// ErrPhoneMismatch is returned when the phone does not belong to the caller.
	ErrPhoneMismatch = errors.New("phone number does not match account")
	// ErrAlreadyVerified is returned when the caller is already verified.
	ErrAlreadyVerified = errors.New("user already verified")
	// ErrCodeNotFound signals no pending code for a user.
	ErrCodeNotFound = errors.New("verification code not found")
)
