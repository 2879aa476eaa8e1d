package auth

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionIDEntropy = 25

var sessionIDEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// Session binds a random id to a user until ExpiresAt. Fresh is set when the
// session was just created or extended and the cookie must be re-sent.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Fresh     bool      `json:"fresh"`
}

// SessionStore persists sessions.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (Session, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

func newSessionID() (string, error) {
	buf := make([]byte, sessionIDEntropy)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return sessionIDEncoding.EncodeToString(buf), nil
}

// PostgresSessionStore stores sessions in user_sessions.
type PostgresSessionStore struct {
	db *pgxpool.Pool
}

// NewPostgresSessionStore builds a Postgres-backed session store.
func NewPostgresSessionStore(db *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Create(ctx context.Context, session Session) error {
	userID, err := uuid.Parse(session.UserID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO user_sessions (id, user_id, expires_at) VALUES ($1, $2, $3)`,
		session.ID, userID, session.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Get(ctx context.Context, id string) (Session, error) {
	var session Session
	err := s.db.QueryRow(ctx, `SELECT id, user_id::text, expires_at FROM user_sessions WHERE id = $1`, id).
		Scan(&session.ID, &session.UserID, &session.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("select session: %w", err)
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

func (s *PostgresSessionStore) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `UPDATE user_sessions SET expires_at = $2 WHERE id = $1`, id, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM user_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemorySessionStore builds an in-memory session store for development and tests.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]Session)}
}

func (s *memorySessionStore) Create(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.Fresh = false
	s.sessions[session.ID] = session
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *memorySessionStore) UpdateExpiry(_ context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.ExpiresAt = expiresAt
	s.sessions[id] = session
	return nil
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func validSessionID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	return strings.Trim(id, "abcdefghijklmnopqrstuvwxyz234567") == ""
}
