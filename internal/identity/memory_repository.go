package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository builds an in-memory user store for development and tests.
// It enforces the same uniqueness rules as the Postgres schema.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.WalletAddress, user.WalletAddress) {
			return ErrDuplicateWalletAddress
		}
		if existing.PasskeyID == user.PasskeyID {
			return ErrDuplicatePasskey
		}
		if user.Verified() && existing.Verified() && existing.PhoneNumber == user.PhoneNumber {
			return ErrDuplicatePhoneNumber
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByPhone(_ context.Context, phone string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := r.filter(func(u User) bool { return u.PhoneNumber == phone })
	if len(matches) == 0 {
		return User{}, ErrUserNotFound
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Verified() != matches[j].Verified() {
			return matches[i].Verified()
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches[0], nil
}

func (r *memoryRepository) FindVerifiedByPhone(_ context.Context, phone string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := r.filter(func(u User) bool { return u.Verified() && u.PhoneNumber == phone })
	if len(matches) == 0 {
		return User{}, ErrUserNotFound
	}
	return matches[0], nil
}

func (r *memoryRepository) FindByWalletAddress(_ context.Context, address string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := r.filter(func(u User) bool { return strings.EqualFold(u.WalletAddress, address) })
	if len(matches) == 0 {
		return User{}, ErrUserNotFound
	}
	return matches[0], nil
}

func (r *memoryRepository) FindByPasskeyID(_ context.Context, passkeyID string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := r.filter(func(u User) bool { return u.PasskeyID == passkeyID })
	if len(matches) == 0 {
		return User{}, ErrUserNotFound
	}
	return matches[0], nil
}

func (r *memoryRepository) MarkVerified(_ context.Context, id string, at time.Time) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if user.Verified() {
		return user, nil
	}
	for _, other := range r.users {
		if other.ID != id && other.Verified() && other.PhoneNumber == user.PhoneNumber {
			return User{}, ErrDuplicatePhoneNumber
		}
	}
	at = at.UTC()
	user.VerifiedAt = &at
	user.UpdatedAt = at
	r.users[id] = user
	return user, nil
}

func (r *memoryRepository) ListByWalletAddresses(_ context.Context, addresses []string) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		wanted[strings.ToLower(a)] = struct{}{}
	}
	return r.filter(func(u User) bool {
		_, ok := wanted[strings.ToLower(u.WalletAddress)]
		return ok
	}), nil
}

func (r *memoryRepository) filter(match func(User) bool) []User {
	var out []User
	for _, u := range r.users {
		if match(u) {
			out = append(out, u)
		}
	}
	return out
}
