package identity

import "time"

// User is a wallet owner in the directory. PhoneNumber is always E.164.
type User struct {
	ID               string     `json:"id"`
	WalletAddress    string     `json:"walletAddress"`
	PasskeyID        string     `json:"passkeyId"`
	PasskeyPublicKey string     `json:"passkeyPublicKey"`
	PhoneNumber      string     `json:"phoneNumber"`
	VerifiedAt       *time.Time `json:"verifiedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Verified reports whether the user completed phone verification.
func (u User) Verified() bool {
	return u.VerifiedAt != nil
}

// SignUpRequest carries the fields collected by the sign-up flow. PhoneNumber
// must already be normalised.
type SignUpRequest struct {
	PhoneNumber      string
	PasskeyID        string
	PasskeyPublicKey string
}
