package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/airtime-queen/airtime_queen/internal/identity"
)

func seedUser(t *testing.T, repo identity.Repository, verified bool) identity.User {
	t.Helper()
	now := time.Now().UTC()
	user := identity.User{
		ID:               "6f1c1f7e-8a52-4c55-9d6b-0d1c5c8e7a01",
		WalletAddress:    "0x52908400098527886E0F7030069857D2E4169EE7",
		PasskeyID:        "cred-1",
		PasskeyPublicKey: "0x04",
		PhoneNumber:      "+27821234567",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if verified {
		user.VerifiedAt = &now
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func newSessions(repo identity.Repository, now *time.Time) *SessionService {
	svc := NewSessionService(NewMemorySessionStore(), repo, SessionOptions{TTL: 30 * 24 * time.Hour})
	svc.now = func() time.Time { return *now }
	return svc
}

func TestSessionCreateAndValidate(t *testing.T) {
	repo := identity.NewMemoryRepository()
	user := seedUser(t, repo, false)
	now := time.Now()
	svc := newSessions(repo, &now)
	ctx := context.Background()

	session, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, session.ID, 40)
	require.True(t, session.Fresh)

	got, gotUser, err := svc.Validate(ctx, session.ID)
	require.NoError(t, err)
	require.False(t, got.Fresh)
	require.Equal(t, user.ID, gotUser.ID)
}

func TestSessionSlidingExpiry(t *testing.T) {
	repo := identity.NewMemoryRepository()
	user := seedUser(t, repo, false)
	now := time.Now()
	svc := newSessions(repo, &now)
	ctx := context.Background()

	session, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)

	now = now.Add(16 * 24 * time.Hour)
	got, _, err := svc.Validate(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, got.Fresh)
	require.Equal(t, now.Add(30*24*time.Hour).UTC(), got.ExpiresAt)
}

func TestSessionExpiredIsDeleted(t *testing.T) {
	repo := identity.NewMemoryRepository()
	user := seedUser(t, repo, false)
	now := time.Now()
	svc := newSessions(repo, &now)
	ctx := context.Background()

	session, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)

	now = now.Add(31 * 24 * time.Hour)
	_, _, err = svc.Validate(ctx, session.ID)
	require.ErrorIs(t, err, ErrInvalidSession)

	_, err = svc.store.Get(ctx, session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionInvalidate(t *testing.T) {
	repo := identity.NewMemoryRepository()
	user := seedUser(t, repo, false)
	now := time.Now()
	svc := newSessions(repo, &now)
	ctx := context.Background()

	session, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx, session.ID))

	_, _, err = svc.Validate(ctx, session.ID)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionValidateRejectsGarbage(t *testing.T) {
	now := time.Now()
	svc := newSessions(identity.NewMemoryRepository(), &now)

	for _, id := range []string{"", "NOT-BASE32!", "unknownsessionid"} {
		_, _, err := svc.Validate(context.Background(), id)
		require.ErrorIs(t, err, ErrInvalidSession, id)
	}
}

func TestCookieAttributes(t *testing.T) {
	now := time.Now()
	svc := NewSessionService(NewMemorySessionStore(), identity.NewMemoryRepository(), SessionOptions{Secure: true})
	svc.now = func() time.Time { return now }

	cookie := svc.Cookie(Session{ID: "abc", ExpiresAt: now.Add(time.Hour)})
	require.Equal(t, "auth_session", cookie.Name)
	require.Equal(t, "abc", cookie.Value)
	require.True(t, cookie.HTTPOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, 3600, cookie.MaxAge)

	blank := svc.BlankCookie()
	require.Empty(t, blank.Value)
	require.Negative(t, blank.MaxAge)
}

func TestGateAuthorize(t *testing.T) {
	repo := identity.NewMemoryRepository()
	user := seedUser(t, repo, false)
	now := time.Now()
	gate := NewGate(newSessions(repo, &now))
	ctx := context.Background()

	session, err := gate.Sessions().Create(ctx, user.ID)
	require.NoError(t, err)

	_, err = gate.Authorize(ctx, "", false)
	require.ErrorIs(t, err, ErrInvalidSession)

	p, err := gate.Authorize(ctx, session.ID, false)
	require.NoError(t, err)
	require.Equal(t, user.ID, p.User.ID)

	_, err = gate.Authorize(ctx, session.ID, true)
	require.ErrorIs(t, err, ErrUserNotVerified)

	_, err = repo.MarkVerified(ctx, user.ID, now)
	require.NoError(t, err)
	p, err = gate.Authorize(ctx, session.ID, true)
	require.NoError(t, err)
	require.True(t, p.User.Verified())
}

func TestReadBearerToken(t *testing.T) {
	require.Equal(t, "abc", ReadBearerToken("Bearer abc"))
	require.Equal(t, "abc", ReadBearerToken("bearer   abc "))
	require.Empty(t, ReadBearerToken("Basic abc"))
	require.Empty(t, ReadBearerToken("Bearer"))
	require.Empty(t, ReadBearerToken(""))
}
