package challenge

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, 60*time.Second), mr
}

func TestRedisIssueAndConsumeOnce(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	value, err := store.Issue(ctx, "nonce-1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(value, "0x"))
	require.Len(t, value, 2+2*challengeBytes)
	require.Equal(t, 60*time.Second, mr.TTL(keyPrefix+"nonce-1"))

	got, err := store.Consume(ctx, "nonce-1")
	require.NoError(t, err)
	require.Equal(t, value, got)

	_, err = store.Consume(ctx, "nonce-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisIssueOverwrites(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	first, err := store.Issue(ctx, "nonce")
	require.NoError(t, err)
	second, err := store.Issue(ctx, "nonce")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	got, err := store.Consume(ctx, "nonce")
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestRedisChallengeExpires(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	_, err := store.Issue(ctx, "nonce")
	require.NoError(t, err)

	mr.FastForward(61 * time.Second)

	_, err = store.Consume(ctx, "nonce")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisConcurrentConsumeAtMostOnce(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	_, err := store.Issue(ctx, "race")
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Consume(ctx, "race"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, wins.Load())
}

func TestRejectsInvalidNonce(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	_, err := store.Issue(ctx, "")
	require.ErrorIs(t, err, ErrInvalidNonce)
	_, err = store.Issue(ctx, strings.Repeat("n", maxNonceLength+1))
	require.ErrorIs(t, err, ErrInvalidNonce)

	_, err = store.Consume(ctx, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSemantics(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := newMemoryStore(time.Minute, func() time.Time { return now })
	ctx := context.Background()

	value, err := store.Issue(ctx, "n")
	require.NoError(t, err)
	got, err := store.Consume(ctx, "n")
	require.NoError(t, err)
	require.Equal(t, value, got)
	_, err = store.Consume(ctx, "n")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.Issue(ctx, "late")
	require.NoError(t, err)
	now = now.Add(time.Minute)
	_, err = store.Consume(ctx, "late")
	require.ErrorIs(t, err, ErrNotFound)
}
