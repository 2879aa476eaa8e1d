package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/airtime-queen/airtime_queen/internal/logging"
)

func setupIdempotencyApp(t *testing.T, status int) (*fiber.App, *atomic.Int32) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	var calls atomic.Int32
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/purchase", func(c *fiber.Ctx) error {
		n := calls.Add(1)
		return c.Status(status).JSON(fiber.Map{"call": n})
	})
	return app, &calls
}

func postPurchase(t *testing.T, app *fiber.App, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/purchase", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	app, calls := setupIdempotencyApp(t, fiber.StatusCreated)

	status, _ := postPurchase(t, app, "")
	require.Equal(t, fiber.StatusCreated, status)
	postPurchase(t, app, "")
	require.EqualValues(t, 2, calls.Load())
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, calls := setupIdempotencyApp(t, fiber.StatusCreated)

	status, first := postPurchase(t, app, "abc123")
	require.Equal(t, fiber.StatusCreated, status)

	status, second := postPurchase(t, app, "abc123")
	require.Equal(t, fiber.StatusCreated, status)
	require.JSONEq(t, first, second)
	require.EqualValues(t, 1, calls.Load())

	postPurchase(t, app, "other")
	require.EqualValues(t, 2, calls.Load())
}

func TestIdempotencyDoesNotCacheServerErrors(t *testing.T) {
	app, calls := setupIdempotencyApp(t, fiber.StatusBadGateway)

	postPurchase(t, app, "retry-me")
	postPurchase(t, app, "retry-me")
	require.EqualValues(t, 2, calls.Load())
}

func TestIdempotencyRejectsLongKey(t *testing.T) {
	app, calls := setupIdempotencyApp(t, fiber.StatusCreated)

	status, _ := postPurchase(t, app, strings.Repeat("k", maxIdempotencyKeyLength+1))
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Zero(t, calls.Load())
}
