package passkey

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func newSigner(t *testing.T) TestSigner {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return TestSigner{Key: key, ID: "cred-1"}
}

func TestVerifyValidAssertion(t *testing.T) {
	signer := newSigner(t)
	challenge := []byte("0123456789abcdef0123456789abcdef")

	assertion, err := signer.Sign(challenge)
	require.NoError(t, err)

	pub, err := ParsePublicKey(signer.PublicKeyHex())
	require.NoError(t, err)
	require.NoError(t, Verify(pub, challenge, assertion))
}

func TestVerifyAcceptsDERSignature(t *testing.T) {
	signer := newSigner(t)
	challenge := []byte("challenge")

	assertion, err := signer.Sign(challenge)
	require.NoError(t, err)

	clientHash := sha256.Sum256([]byte(assertion.WebAuthn.ClientDataJSON))
	digest := sha256.Sum256(append(common.FromHex(assertion.WebAuthn.AuthenticatorData), clientHash[:]...))
	der, err := ecdsa.SignASN1(rand.Reader, signer.Key, digest[:])
	require.NoError(t, err)
	assertion.Signature = "0x" + hex.EncodeToString(der)

	require.NoError(t, Verify(&signer.Key.PublicKey, challenge, assertion))
}

func TestVerifyRejectsWrongChallenge(t *testing.T) {
	signer := newSigner(t)

	assertion, err := signer.Sign([]byte("issued"))
	require.NoError(t, err)

	err = Verify(&signer.Key.PublicKey, []byte("other"), assertion)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	signer := newSigner(t)
	other := newSigner(t)
	challenge := []byte("issued")

	assertion, err := signer.Sign(challenge)
	require.NoError(t, err)

	require.ErrorIs(t, Verify(&other.Key.PublicKey, challenge, assertion), ErrInvalidCredential)
}

func TestVerifyChecksFlags(t *testing.T) {
	signer := newSigner(t)
	challenge := []byte("issued")

	cases := map[string]byte{
		"missing user presence":   flagUserVerified,
		"missing user verified":   flagUserPresent,
		"backup state without BE": flagUserPresent | flagUserVerified | flagBackupState,
	}
	for name, flags := range cases {
		t.Run(name, func(t *testing.T) {
			assertion, err := signer.Sign(challenge)
			require.NoError(t, err)
			authData := common.FromHex(assertion.WebAuthn.AuthenticatorData)
			authData[rpIDHashLength] = flags
			assertion.WebAuthn.AuthenticatorData = "0x" + hex.EncodeToString(authData)

			require.ErrorIs(t, Verify(&signer.Key.PublicKey, challenge, assertion), ErrInvalidCredential)
		})
	}
}

func TestVerifyRejectsWrongType(t *testing.T) {
	signer := newSigner(t)
	challenge := []byte("issued")

	assertion, err := signer.Sign(challenge)
	require.NoError(t, err)
	assertion.WebAuthn.ClientDataJSON = strings.Replace(assertion.WebAuthn.ClientDataJSON, "webauthn.get", "webauthn.new", 1)

	require.ErrorIs(t, Verify(&signer.Key.PublicKey, challenge, assertion), ErrInvalidCredential)
}

func TestVerifyRejectsShortAuthData(t *testing.T) {
	signer := newSigner(t)
	assertion, err := signer.Sign([]byte("c"))
	require.NoError(t, err)
	assertion.WebAuthn.AuthenticatorData = "0x01"

	require.ErrorIs(t, Verify(&signer.Key.PublicKey, []byte("c"), assertion), ErrInvalidCredential)
}

func TestCoordinatesForms(t *testing.T) {
	signer := newSigner(t)
	prefixed := signer.PublicKeyHex()

	x, y, err := Coordinates(prefixed)
	require.NoError(t, err)

	bare := "0x" + prefixed[4:]
	x2, y2, err := Coordinates(bare)
	require.NoError(t, err)
	require.Equal(t, x, x2)
	require.Equal(t, y, y2)

	_, _, err = Coordinates("0x1234")
	require.ErrorIs(t, err, ErrInvalidPublicKey)

	notOnCurve := "0x04" + strings.Repeat("11", 64)
	_, _, err = Coordinates(notOnCurve)
	require.ErrorIs(t, err, ErrInvalidPublicKey)
}
