package auth

import (
	"context"
	"strings"

	"github.com/airtime-queen/airtime_queen/internal/identity"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	User    identity.User
	Session Session
}

// Gate decides whether a presented session token may reach a handler.
type Gate struct {
	sessions *SessionService
}

// NewGate builds a gate over the session service.
func NewGate(sessions *SessionService) *Gate {
	return &Gate{sessions: sessions}
}

// Sessions exposes the session service backing the gate.
func (g *Gate) Sessions() *SessionService {
	return g.sessions
}

// Authorize validates token and, when requireVerified is set, that the user
// has a verified phone number. Rejections are *AuthError values.
func (g *Gate) Authorize(ctx context.Context, token string, requireVerified bool) (Principal, error) {
	if token == "" {
		return Principal{}, ErrInvalidSession
	}
	session, user, err := g.sessions.Validate(ctx, token)
	if err != nil {
		return Principal{}, err
	}
	if requireVerified && !user.Verified() {
		return Principal{}, ErrUserNotVerified
	}
	return Principal{User: user, Session: session}, nil
}

// ReadBearerToken extracts the token from an "Authorization: Bearer" header value.
func ReadBearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
