package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation = "23505"

	constraintVerifiedPhone = "users_verified_phone_number_idx"
	constraintWallet        = "users_wallet_address_key"
	constraintPasskey       = "users_passkey_id_key"

	userColumns = `id, wallet_address, passkey_id, passkey_public_key, phone_number, verified_at, created_at, updated_at`
)

// Repository persists users. Phone numbers passed in must be E.164.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	// FindByPhone returns the verified owner of a number if there is one,
	// otherwise the most recent unverified sign-up.
	FindByPhone(ctx context.Context, phone string) (User, error)
	FindVerifiedByPhone(ctx context.Context, phone string) (User, error)
	FindByWalletAddress(ctx context.Context, address string) (User, error)
	FindByPasskeyID(ctx context.Context, passkeyID string) (User, error)
	MarkVerified(ctx context.Context, id string, at time.Time) (User, error)
	ListByWalletAddresses(ctx context.Context, addresses []string) ([]User, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, user.WalletAddress, user.PasskeyID, user.PasskeyPublicKey, user.PhoneNumber,
		user.VerifiedAt, user.CreatedAt.UTC(), user.UpdatedAt.UTC())
	if err != nil {
		return translateWriteError(err)
	}
	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

// FindByPhone fetches the user holding a number, preferring the verified owner.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1
        ORDER BY verified_at IS NULL, created_at DESC LIMIT 1`, phone)
}

// FindVerifiedByPhone fetches the verified owner of a number.
func (r *PostgresRepository) FindVerifiedByPhone(ctx context.Context, phone string) (User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1 AND verified_at IS NOT NULL`, phone)
}

// FindByWalletAddress fetches a user by checksummed wallet address.
func (r *PostgresRepository) FindByWalletAddress(ctx context.Context, address string) (User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(wallet_address) = lower($1)`, address)
}

// FindByPasskeyID fetches the user registered with a passkey credential.
func (r *PostgresRepository) FindByPasskeyID(ctx context.Context, passkeyID string) (User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE passkey_id = $1`, passkeyID)
}

// MarkVerified stamps verified_at. A verified user keeps the original timestamp.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string, at time.Time) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	row := r.db.QueryRow(ctx, `UPDATE users
        SET verified_at = COALESCE(verified_at, $2), updated_at = $2
        WHERE id = $1
        RETURNING `+userColumns, userID, at.UTC())
	user, err := scanUser(row)
	if err != nil {
		return User{}, translateWriteError(err)
	}
	return user, nil
}

// ListByWalletAddresses returns every user whose wallet is in addresses.
func (r *PostgresRepository) ListByWalletAddresses(ctx context.Context, addresses []string) ([]User, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	lowered := make([]string, 0, len(addresses))
	for _, a := range addresses {
		lowered = append(lowered, strings.ToLower(a))
	}
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE lower(wallet_address) = ANY($1)`, lowered)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (User, error) {
	return scanUser(r.db.QueryRow(ctx, query, args...))
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id         uuid.UUID
		user       User
		verifiedAt *time.Time
	)
	err := row.Scan(&id, &user.WalletAddress, &user.PasskeyID, &user.PasskeyPublicKey,
		&user.PhoneNumber, &verifiedAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.String()
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	if verifiedAt != nil {
		v := verifiedAt.UTC()
		user.VerifiedAt = &v
	}
	return user, nil
}

// translateWriteError maps unique violations onto directory errors.
func translateWriteError(err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case constraintVerifiedPhone:
			return ErrDuplicatePhoneNumber
		case constraintWallet:
			return ErrDuplicateWalletAddress
		case constraintPasskey:
			return ErrDuplicatePasskey
		}
	}
	return fmt.Errorf("write user: %w", err)
}
