package passkey

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// TestSigner is a software passkey used by tests across packages.
type TestSigner struct {
	Key *ecdsa.PrivateKey
	ID  string
}

// PublicKeyHex returns the 0x04-prefixed uncompressed public key.
func (s TestSigner) PublicKeyHex() string {
	buf := make([]byte, 65)
	buf[0] = 0x04
	s.Key.PublicKey.X.FillBytes(buf[1:33])
	s.Key.PublicKey.Y.FillBytes(buf[33:])
	return "0x" + hex.EncodeToString(buf)
}

// Sign produces an assertion over challenge with the user present and verified.
func (s TestSigner) Sign(challenge []byte) (Assertion, error) {
	authData := make([]byte, minAuthDataSize)
	rpHash := sha256.Sum256([]byte("airtimequeen.test"))
	copy(authData, rpHash[:])
	authData[rpIDHashLength] = flagUserPresent | flagUserVerified

	clientData := `{"type":"webauthn.get","challenge":"` +
		base64.RawURLEncoding.EncodeToString(challenge) +
		`","origin":"https://airtimequeen.test","crossOrigin":false}`

	clientHash := sha256.Sum256([]byte(clientData))
	digest := sha256.Sum256(append(append([]byte{}, authData...), clientHash[:]...))

	r, sig, err := ecdsa.Sign(rand.Reader, s.Key, digest[:])
	if err != nil {
		return Assertion{}, err
	}
	raw := make([]byte, 64)
	r.FillBytes(raw[:32])
	sig.FillBytes(raw[32:])

	return Assertion{
		Signature: "0x" + hex.EncodeToString(raw),
		WebAuthn: WebAuthnData{
			AuthenticatorData:        "0x" + hex.EncodeToString(authData),
			ClientDataJSON:           clientData,
			ChallengeIndex:           strings.Index(clientData, `"challenge"`),
			TypeIndex:                strings.Index(clientData, `"type"`),
			UserVerificationRequired: true,
		},
		Raw: RawCredential{ID: s.ID},
	}, nil
}
