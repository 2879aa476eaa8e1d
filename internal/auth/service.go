package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/airtime-queen/airtime_queen/internal/identity"
)

// DefaultSessionTTL is how long an idle session stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionOptions configures cookie attributes and lifetime.
type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// SessionService creates, validates and invalidates sessions.
type SessionService struct {
	store SessionStore
	users identity.Repository
	opts  SessionOptions
	now   func() time.Time
}

// NewSessionService builds a session service over store and the user directory.
func NewSessionService(store SessionStore, users identity.Repository, opts SessionOptions) *SessionService {
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.CookieName == "" {
		opts.CookieName = "auth_session"
	}
	return &SessionService{store: store, users: users, opts: opts, now: time.Now}
}

// CookieName is the name of the session cookie.
func (s *SessionService) CookieName() string {
	return s.opts.CookieName
}

// Create starts a new session for userID.
func (s *SessionService) Create(ctx context.Context, userID string) (Session, error) {
	id, err := newSessionID()
	if err != nil {
		return Session{}, err
	}
	session := Session{ID: id, UserID: userID, ExpiresAt: s.now().Add(s.opts.TTL).UTC(), Fresh: true}
	if err := s.store.Create(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Validate resolves a session id to its session and user. Sessions in the
// second half of their lifetime are extended and marked Fresh.
func (s *SessionService) Validate(ctx context.Context, id string) (Session, identity.User, error) {
	if !validSessionID(id) {
		return Session{}, identity.User{}, ErrInvalidSession
	}
	session, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return Session{}, identity.User{}, ErrInvalidSession
	}
	if err != nil {
		return Session{}, identity.User{}, err
	}

	now := s.now()
	if !now.Before(session.ExpiresAt) {
		if err := s.store.Delete(ctx, id); err != nil {
			return Session{}, identity.User{}, err
		}
		return Session{}, identity.User{}, ErrInvalidSession
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if errors.Is(err, identity.ErrUserNotFound) {
		return Session{}, identity.User{}, ErrInvalidSession
	}
	if err != nil {
		return Session{}, identity.User{}, err
	}

	if session.ExpiresAt.Sub(now) < s.opts.TTL/2 {
		session.ExpiresAt = now.Add(s.opts.TTL).UTC()
		if err := s.store.UpdateExpiry(ctx, id, session.ExpiresAt); err != nil {
			return Session{}, identity.User{}, err
		}
		session.Fresh = true
	}
	return session, user, nil
}

// Invalidate deletes a session.
func (s *SessionService) Invalidate(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Cookie returns the Set-Cookie value for session.
func (s *SessionService) Cookie(session Session) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     s.opts.CookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(session.ExpiresAt.Sub(s.now()).Seconds()),
		Secure:   s.opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// BlankCookie clears the session cookie in the browser.
func (s *SessionService) BlankCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   s.opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
