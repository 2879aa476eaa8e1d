// Package merchant fronts the airtime merchant API: product listings are
// region gated and purchases carry a signed trust token for the caller.
package merchant

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TrustHeader carries the signed caller identity to the merchant API.
const TrustHeader = "x-trusted-user-data"

// TrustClaims identify the wallet owner on whose behalf a request is made.
type TrustClaims struct {
	ID            string `json:"id"`
	WalletAddress string `json:"walletAddress"`
	jwt.RegisteredClaims
}

// TrustSigner mints short-lived HS256 trust tokens.
type TrustSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTrustSigner builds a signer. ttl defaults to one hour.
func NewTrustSigner(secret string, ttl time.Duration) (*TrustSigner, error) {
	if secret == "" {
		return nil, errors.New("merchant: trust token secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TrustSigner{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign returns a token for the user id and wallet address.
func (s *TrustSigner) Sign(id, walletAddress string) (string, error) {
	now := s.now()
	claims := TrustClaims{
		ID:            id,
		WalletAddress: walletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("merchant: sign trust token: %w", err)
	}
	return signed, nil
}

// Parse verifies a trust token and returns its claims.
func (s *TrustSigner) Parse(token string) (*TrustClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	parsed, err := parser.ParseWithClaims(token, &TrustClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("merchant: parse trust token: %w", err)
	}
	claims, ok := parsed.Claims.(*TrustClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("merchant: invalid trust token claims")
	}
	return claims, nil
}
