package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrPhoneNumberRegistered is returned by availability checks for a number a
// verified user already owns.
var ErrPhoneNumberRegistered = errors.New("phone number already registered and verified")

// AddressDeriver computes the smart-wallet address controlled by a passkey.
type AddressDeriver interface {
	DeriveAddress(ctx context.Context, passkeyPublicKey string) (string, error)
}

// Service manages the user directory lifecycle.
type Service struct {
	repo    Repository
	deriver AddressDeriver
	now     func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository, deriver AddressDeriver) *Service {
	return &Service{repo: repo, deriver: deriver, now: time.Now}
}

// Repository exposes the underlying store to collaborators that only read.
func (s *Service) Repository() Repository {
	return s.repo
}

// SignUp creates an unverified user for a normalised phone number.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (User, error) {
	if strings.TrimSpace(req.PasskeyID) == "" || strings.TrimSpace(req.PasskeyPublicKey) == "" {
		return User{}, ErrInvalidPasskey
	}

	_, err := s.repo.FindVerifiedByPhone(ctx, req.PhoneNumber)
	switch {
	case err == nil:
		return User{}, ErrDuplicatePhoneNumber
	case !errors.Is(err, ErrUserNotFound):
		return User{}, err
	}

	address, err := s.deriver.DeriveAddress(ctx, req.PasskeyPublicKey)
	if err != nil {
		return User{}, fmt.Errorf("derive wallet address: %w", err)
	}

	now := s.now().UTC()
	user := User{
		ID:               uuid.New().String(),
		WalletAddress:    address,
		PasskeyID:        req.PasskeyID,
		PasskeyPublicKey: req.PasskeyPublicKey,
		PhoneNumber:      req.PhoneNumber,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// CheckAvailability fails when a verified user already owns phone.
func (s *Service) CheckAvailability(ctx context.Context, phone string) error {
	_, err := s.repo.FindVerifiedByPhone(ctx, phone)
	switch {
	case err == nil:
		return ErrPhoneNumberRegistered
	case errors.Is(err, ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// MarkVerified records that the user proved ownership of their phone number.
func (s *Service) MarkVerified(ctx context.Context, id string) (User, error) {
	return s.repo.MarkVerified(ctx, id, s.now())
}

// ResolveAddress returns the wallet address registered for phone.
func (s *Service) ResolveAddress(ctx context.Context, phone string) (string, error) {
	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	return user.WalletAddress, nil
}

// ResolveNumber returns the phone number registered for a wallet address.
func (s *Service) ResolveNumber(ctx context.Context, address string) (string, error) {
	user, err := s.repo.FindByWalletAddress(ctx, address)
	if err != nil {
		return "", err
	}
	return user.PhoneNumber, nil
}

// PhoneNumbersByAddress maps lower-cased wallet addresses to phone numbers of
// the users that own them.
func (s *Service) PhoneNumbersByAddress(ctx context.Context, addresses []string) (map[string]string, error) {
	users, err := s.repo.ListByWalletAddresses(ctx, addresses)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[strings.ToLower(u.WalletAddress)] = u.PhoneNumber
	}
	return out, nil
}
