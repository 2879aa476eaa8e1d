// Package passkey verifies WebAuthn P-256 assertions produced by a passkey
// over a server-issued challenge.
package passkey

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	flagUserPresent    = 0x01
	flagUserVerified   = 0x04
	flagBackupEligible = 0x08
	flagBackupState    = 0x10

	rpIDHashLength  = 32
	minAuthDataSize = rpIDHashLength + 1 + 4
	coordinateSize  = 32
)

var (
	// ErrInvalidCredential covers every reason an assertion is rejected.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrInvalidPublicKey rejects keys that are not uncompressed P-256 points.
	ErrInvalidPublicKey = errors.New("invalid passkey public key")
)

// WebAuthnData is the authenticator output accompanying a signature.
type WebAuthnData struct {
	AuthenticatorData        string `json:"authenticatorData"`
	ClientDataJSON           string `json:"clientDataJSON"`
	ChallengeIndex           int    `json:"challengeIndex"`
	TypeIndex                int    `json:"typeIndex"`
	UserVerificationRequired bool   `json:"userVerificationRequired"`
}

// RawCredential identifies the passkey that signed.
type RawCredential struct {
	ID string `json:"id"`
}

// Assertion is the serialised credential a client submits at login.
type Assertion struct {
	Signature string        `json:"signature"`
	WebAuthn  WebAuthnData  `json:"webauthn"`
	Raw       RawCredential `json:"raw"`
}

// Coordinates splits a hex public key into its affine x and y coordinates.
// Both the 64 byte x||y form and the 65 byte 0x04-prefixed form are accepted.
func Coordinates(publicKeyHex string) (x, y [coordinateSize]byte, err error) {
	raw := common.FromHex(strings.TrimSpace(publicKeyHex))
	switch {
	case len(raw) == 2*coordinateSize+1 && raw[0] == 0x04:
		raw = raw[1:]
	case len(raw) == 2*coordinateSize:
	default:
		return x, y, ErrInvalidPublicKey
	}
	if _, err := ecdh.P256().NewPublicKey(append([]byte{0x04}, raw...)); err != nil {
		return x, y, ErrInvalidPublicKey
	}
	copy(x[:], raw[:coordinateSize])
	copy(y[:], raw[coordinateSize:])
	return x, y, nil
}

// ParsePublicKey decodes a hex passkey public key into an ECDSA key.
func ParsePublicKey(publicKeyHex string) (*ecdsa.PublicKey, error) {
	x, y, err := Coordinates(publicKeyHex)
	if err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(x[:]),
		Y:     new(big.Int).SetBytes(y[:]),
	}, nil
}

// Verify checks that assertion is a valid signature by key over challenge.
func Verify(key *ecdsa.PublicKey, challenge []byte, assertion Assertion) error {
	authData := common.FromHex(assertion.WebAuthn.AuthenticatorData)
	if len(authData) < minAuthDataSize {
		return fmt.Errorf("%w: authenticator data too short", ErrInvalidCredential)
	}

	flags := authData[rpIDHashLength]
	if flags&flagUserPresent == 0 {
		return fmt.Errorf("%w: user not present", ErrInvalidCredential)
	}
	if assertion.WebAuthn.UserVerificationRequired && flags&flagUserVerified == 0 {
		return fmt.Errorf("%w: user not verified", ErrInvalidCredential)
	}
	if flags&flagBackupState != 0 && flags&flagBackupEligible == 0 {
		return fmt.Errorf("%w: inconsistent backup flags", ErrInvalidCredential)
	}

	clientData := assertion.WebAuthn.ClientDataJSON
	if !hasAt(clientData, assertion.WebAuthn.TypeIndex, `"type":"webauthn.get"`) {
		return fmt.Errorf("%w: unexpected client data type", ErrInvalidCredential)
	}
	expected := `"challenge":"` + base64.RawURLEncoding.EncodeToString(challenge) + `"`
	if !hasAt(clientData, assertion.WebAuthn.ChallengeIndex, expected) {
		return fmt.Errorf("%w: challenge mismatch", ErrInvalidCredential)
	}

	clientHash := sha256.Sum256([]byte(clientData))
	message := make([]byte, 0, len(authData)+len(clientHash))
	message = append(message, authData...)
	message = append(message, clientHash[:]...)
	digest := sha256.Sum256(message)

	if !verifySignature(key, digest[:], common.FromHex(assertion.Signature)) {
		return fmt.Errorf("%w: bad signature", ErrInvalidCredential)
	}
	return nil
}

func verifySignature(key *ecdsa.PublicKey, digest, sig []byte) bool {
	if len(sig) == 2*coordinateSize {
		r := new(big.Int).SetBytes(sig[:coordinateSize])
		s := new(big.Int).SetBytes(sig[coordinateSize:])
		return ecdsa.Verify(key, digest, r, s)
	}
	return ecdsa.VerifyASN1(key, digest, sig)
}

func hasAt(s string, index int, want string) bool {
	if index < 0 || index > len(s) {
		return false
	}
	return strings.HasPrefix(s[index:], want)
}
