package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig describes a fixed-window limit shared across instances.
type RateLimitConfig struct {
	Name   string
	Max    int
	Window time.Duration
	// Key derives the bucket for a request. Defaults to the client IP.
	Key func(c *fiber.Ctx) string
}

// RateLimit limits requests per key using Redis INCR with a window expiry.
// Without Redis, or when Redis fails, requests are let through.
func RateLimit(cache *redis.Client, cfg RateLimitConfig, logger *slog.Logger) fiber.Handler {
	if cfg.Max <= 0 {
		cfg.Max = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Key == nil {
		cfg.Key = func(c *fiber.Ctx) string { return c.IP() }
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		bucket := strings.TrimSpace(cfg.Key(c))
		if bucket == "" {
			bucket = c.IP()
		}
		key := "rl:" + cfg.Name + ":" + bucket

		ctx := c.UserContext()
		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit lookup failed", slog.String("limit", cfg.Name), slog.Any("error", err))
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(ctx, key, cfg.Window)
		}
		if cnt > int64(cfg.Max) {
			retry := cfg.Window
			if ttl, err := cache.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				retry = ttl
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retry.Round(time.Second).Seconds())))
			return fiber.NewError(http.StatusTooManyRequests, "Too many requests, try again later")
		}
		return c.Next()
	}
}

// BodyFieldKey buckets requests by a JSON body field, falling back to the IP.
func BodyFieldKey(field string) func(c *fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		var body map[string]any
		if err := c.BodyParser(&body); err != nil {
			return c.IP()
		}
		if v, ok := body[field].(string); ok && strings.TrimSpace(v) != "" {
			return c.IP() + ":" + strings.TrimSpace(v)
		}
		return c.IP()
	}
}
