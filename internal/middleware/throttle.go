package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const throttleCleanupEvery = 5 * time.Minute

// ipThrottle keeps one token bucket per client IP.
type ipThrottle struct {
	limiters    sync.Map // map[string]*rate.Limiter
	limit       rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (t *ipThrottle) limiter(key string) *rate.Limiter {
	if l, ok := t.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := t.limiters.LoadOrStore(key, rate.NewLimiter(t.limit, t.burst))
	t.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters; a full bucket means no recent traffic.
func (t *ipThrottle) maybeCleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if time.Since(t.lastCleanup) < throttleCleanupEvery {
		return
	}
	t.lastCleanup = time.Now()
	t.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(t.burst) {
			t.limiters.Delete(key)
		}
		return true
	})
}

// Throttle applies an in-process token bucket of rps requests per second per
// client IP, with a burst of the same size.
func Throttle(rps int) fiber.Handler {
	if rps <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	t := &ipThrottle{limit: rate.Limit(rps), burst: rps, lastCleanup: time.Now()}
	return func(c *fiber.Ctx) error {
		if !t.limiter(c.IP()).Allow() {
			c.Set(fiber.HeaderRetryAfter, "1")
			return fiber.NewError(http.StatusTooManyRequests, "Too many requests, try again later")
		}
		return c.Next()
	}
}
