package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/airtime-queen/airtime_queen/internal/identity"
	"github.com/airtime-queen/airtime_queen/internal/notification"
)

const (
	codeDigits = 6

	DefaultCodeTTL      = 10 * time.Minute
	DefaultMaxAttempts  = 5
	DefaultResendWindow = time.Minute
)

// Options tunes code lifetime and abuse limits.
type Options struct {
	CodeTTL      time.Duration
	MaxAttempts  int
	ResendWindow time.Duration
	// HashCost is the bcrypt cost; zero selects bcrypt.DefaultCost.
	HashCost int
}

// Service sends and checks one-time phone verification codes.
type Service struct {
	store    CodeStore
	notifier notification.Notifier
	users    *identity.Service
	opts     Options
}

// NewService builds a verification service.
func NewService(store CodeStore, notifier notification.Notifier, users *identity.Service, opts Options) *Service {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = DefaultCodeTTL
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.ResendWindow < 0 {
		opts.ResendWindow = DefaultResendWindow
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	return &Service{store: store, notifier: notifier, users: users, opts: opts}
}

// SendCode texts a fresh code to the user's phone number. phone must already
// be normalized.
func (s *Service) SendCode(ctx context.Context, user identity.User, phone string) error {
	if err := s.checkOwner(ctx, user, phone); err != nil {
		return err
	}
	allowed, err := s.store.ReserveResend(ctx, user.ID, s.opts.ResendWindow)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrResendThrottled
	}

	if err := s.deliver(ctx, user.ID, phone); err != nil {
		if releaseErr := s.store.ReleaseResend(ctx, user.ID); releaseErr != nil {
			return errors.Join(err, releaseErr)
		}
		return err
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, userID, phone string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.opts.HashCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err := s.store.Save(ctx, userID, Record{Phone: phone, Hash: hash}, s.opts.CodeTTL); err != nil {
		return err
	}
	return s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindPhoneVerification,
		Destination: phone,
		Body:        fmt.Sprintf("Your Airtime Queen verification code is %s", code),
	})
}

// CheckCode verifies code and marks the user verified on success.
func (s *Service) CheckCode(ctx context.Context, user identity.User, phone, code string) (identity.User, error) {
	if err := s.checkOwner(ctx, user, phone); err != nil {
		return identity.User{}, err
	}
	rec, err := s.store.Load(ctx, user.ID)
	if errors.Is(err, ErrCodeNotFound) {
		return identity.User{}, ErrInvalidCode
	}
	if err != nil {
		return identity.User{}, err
	}
	if rec.Phone != phone {
		return identity.User{}, ErrPhoneMismatch
	}
	if rec.Attempts >= s.opts.MaxAttempts {
		return identity.User{}, ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword(rec.Hash, []byte(code)) != nil {
		attempts, err := s.store.IncrementAttempts(ctx, user.ID)
		if errors.Is(err, ErrCodeNotFound) {
			return identity.User{}, ErrInvalidCode
		}
		if err != nil {
			return identity.User{}, err
		}
		if attempts >= s.opts.MaxAttempts {
			return identity.User{}, ErrTooManyAttempts
		}
		return identity.User{}, ErrInvalidCode
	}

	if err := s.store.Delete(ctx, user.ID); err != nil {
		return identity.User{}, err
	}
	return s.users.MarkVerified(ctx, user.ID)
}

func (s *Service) checkOwner(ctx context.Context, user identity.User, phone string) error {
	if user.Verified() {
		return ErrAlreadyVerified
	}
	if phone != user.PhoneNumber {
		return ErrPhoneMismatch
	}
	// Another account may have verified this number since sign-up.
	return s.users.CheckAvailability(ctx, phone)
}

func generateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
