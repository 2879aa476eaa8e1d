package verification

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix   = "verify:code:"
	resendKeyPrefix = "verify:resend:"
)

// Record is a pending verification code.
type Record struct {
	Phone    string
	Hash     []byte
	Attempts int
}

// CodeStore keeps pending codes keyed by user id.
type CodeStore interface {
	Save(ctx context.Context, userID string, rec Record, ttl time.Duration) error
	Load(ctx context.Context, userID string) (Record, error)
	// IncrementAttempts returns ErrCodeNotFound once the code has expired.
	IncrementAttempts(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID string) error
	// ReserveResend reports whether a send is allowed, blocking further
	// sends for window when it is.
	ReserveResend(ctx context.Context, userID string, window time.Duration) (bool, error)
	// ReleaseResend lifts a reservation whose send did not go out.
	ReleaseResend(ctx context.Context, userID string) error
}

// incrementIfPresent never recreates an expired code hash without its TTL.
var incrementIfPresent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

// RedisCodeStore stores codes as redis hashes.
type RedisCodeStore struct {
	client *redis.Client
}

// NewRedisCodeStore builds a redis backed code store.
func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Save(ctx context.Context, userID string, rec Record, ttl time.Duration) error {
	key := codeKeyPrefix + userID
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "phone", rec.Phone, "hash", string(rec.Hash), "attempts", rec.Attempts)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *RedisCodeStore) Load(ctx context.Context, userID string) (Record, error) {
	values, err := s.client.HGetAll(ctx, codeKeyPrefix+userID).Result()
	if err != nil {
		return Record{}, err
	}
	if len(values) == 0 {
		return Record{}, ErrCodeNotFound
	}
	attempts, err := strconv.Atoi(values["attempts"])
	if err != nil {
		return Record{}, err
	}
	return Record{Phone: values["phone"], Hash: []byte(values["hash"]), Attempts: attempts}, nil
}

func (s *RedisCodeStore) IncrementAttempts(ctx context.Context, userID string) (int, error) {
	n, err := incrementIfPresent.Run(ctx, s.client, []string{codeKeyPrefix + userID}).Int64()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrCodeNotFound
	}
	return int(n), nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, codeKeyPrefix+userID).Err()
}

func (s *RedisCodeStore) ReserveResend(ctx context.Context, userID string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	return s.client.SetNX(ctx, resendKeyPrefix+userID, "1", window).Result()
}

func (s *RedisCodeStore) ReleaseResend(ctx context.Context, userID string) error {
	return s.client.Del(ctx, resendKeyPrefix+userID).Err()
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// MemoryCodeStore is an in-process CodeStore for development and tests.
type MemoryCodeStore struct {
	mu      sync.Mutex
	codes   map[string]memoryEntry
	resends map[string]time.Time
	now     func() time.Time
}

// NewMemoryCodeStore constructs an empty in-memory store.
func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{
		codes:   make(map[string]memoryEntry),
		resends: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryCodeStore) Save(_ context.Context, userID string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Hash = append([]byte(nil), rec.Hash...)
	s.codes[userID] = memoryEntry{rec: rec, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCodeStore) Load(_ context.Context, userID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(userID)
	if !ok {
		return Record{}, ErrCodeNotFound
	}
	return entry.rec, nil
}

func (s *MemoryCodeStore) IncrementAttempts(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(userID)
	if !ok {
		return 0, ErrCodeNotFound
	}
	entry.rec.Attempts++
	s.codes[userID] = entry
	return entry.rec.Attempts, nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, userID)
	return nil
}

func (s *MemoryCodeStore) ReserveResend(_ context.Context, userID string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if until, ok := s.resends[userID]; ok && now.Before(until) {
		return false, nil
	}
	s.resends[userID] = now.Add(window)
	return true, nil
}

func (s *MemoryCodeStore) ReleaseResend(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resends, userID)
	return nil
}

// live must be called with mu held.
func (s *MemoryCodeStore) live(userID string) (memoryEntry, bool) {
	entry, ok := s.codes[userID]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.codes, userID)
		return memoryEntry{}, false
	}
	return entry, true
}

