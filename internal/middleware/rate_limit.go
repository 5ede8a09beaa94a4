package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// WebhookRateLimit caps deliveries per caller IP and route per minute. The
// window is shared through Redis when a client is given; without one, or
// while Redis errors, a per-process token bucket applies the same limit.
func WebhookRateLimit(cache *redis.Client, perMinute int, logger *slog.Logger) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 120
	}
	local := newLocalLimiter(perMinute)

	return func(c *fiber.Ctx) error {
		subject := c.IP() + ":" + c.Path()

		if cache != nil {
			key := "rl:webhook:" + subject
			cnt, err := cache.Incr(c.UserContext(), key).Result()
			if err == nil {
				if cnt == 1 {
					cache.Expire(c.UserContext(), key, time.Minute)
				}
				if cnt > int64(perMinute) {
					return fiber.NewError(fiber.StatusTooManyRequests, "too many webhook deliveries, try again later")
				}
				return c.Next()
			}
			logger.Warn("webhook rate limit store unavailable", slog.Any("error", err))
		}

		if !local.allow(subject) {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many webhook deliveries, try again later")
		}
		return c.Next()
	}
}

// idleAfter is how long a subject must be quiet before its bucket is dropped.
// A bucket refills its full burst within a minute, so dropping it after that
// changes nothing for the next request.
const idleAfter = time.Minute

type localLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*subjectLimiter
	lastSweep time.Time
	now       func() time.Time
}

type subjectLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(perMinute int) *localLimiter {
	return &localLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		limiters: map[string]*subjectLimiter{},
		now:      time.Now,
	}
}

func (l *localLimiter) allow(subject string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= idleAfter {
		for key, s := range l.limiters {
			if now.Sub(s.lastSeen) >= idleAfter {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}

	s, ok := l.limiters[subject]
	if !ok {
		s = &subjectLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[subject] = s
	}
	s.lastSeen = now
	return s.lim.AllowN(now, 1)
}

func (l *localLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
