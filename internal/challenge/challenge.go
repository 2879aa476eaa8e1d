// Package challenge issues single-use random challenges keyed by a
// client-chosen nonce.
package challenge

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	challengeBytes = 32
	maxNonceLength = 128
	keyPrefix      = "challenge:"

	// DefaultTTL bounds how long a client has to sign a challenge.
	DefaultTTL = 60 * time.Second
)

var (
	// ErrNotFound means no live challenge exists for the nonce.
	ErrNotFound = errors.New("challenge not found")
	// ErrInvalidNonce rejects empty or oversized nonces.
	ErrInvalidNonce = errors.New("invalid nonce")
)

// Store keeps at most one live challenge per nonce.
type Store interface {
	// Issue generates a fresh challenge for nonce, replacing any previous one.
	Issue(ctx context.Context, nonce string) (string, error)
	// Consume atomically returns and deletes the challenge for nonce.
	Consume(ctx context.Context, nonce string) (string, error)
}

func validateNonce(nonce string) error {
	nonce = strings.TrimSpace(nonce)
	if nonce == "" || len(nonce) > maxNonceLength {
		return ErrInvalidNonce
	}
	return nil
}

func newChallenge() (string, error) {
	buf := make([]byte, challengeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate challenge: %w", err)
	}
	return "0x" + hex.EncodeToString(buf), nil
}
