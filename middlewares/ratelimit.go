package middlewares

import (
	"context"
	"strconv"
	"sync"
	"time"

	"controlplane-backend/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitResult is the outcome of one counted request.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// RateLimitStore counts requests per key inside a fixed window.
//
// Fixed-window counting is approximate: bursts straddling a window boundary
// can reach up to 2x the nominal limit. With the in-memory store the limit
// is also per-process, not global.
type RateLimitStore interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (RateLimitResult, error)
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryStore is the default in-process fixed-window counter. Expired
// entries are swept periodically so the table stays bounded for long-lived
// processes.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*windowEntry
	lastSweep time.Time
	now       func() time.Time
}

const sweepEvery = time.Minute

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Check(_ context.Context, key string, limit int, window time.Duration) (RateLimitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > sweepEvery {
		for k, e := range s.entries {
			if now.After(e.resetAt) {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &windowEntry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = e
		return RateLimitResult{Allowed: true, Remaining: limit - 1, ResetIn: window}, nil
	}

	e.count++
	remaining := limit - e.count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   e.count <= limit,
		Remaining: remaining,
		ResetIn:   e.resetAt.Sub(now),
	}, nil
}

// RedisStore shares the window counters across instances via INCR + TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Check(ctx context.Context, key string, limit int, window time.Duration) (RateLimitResult, error) {
	p := s.client.Pipeline()
	incr := p.Incr(ctx, "rate_limit:"+key)
	ttl := p.TTL(ctx, "rate_limit:"+key)
	if _, err := p.Exec(ctx); err != nil {
		return RateLimitResult{}, err
	}

	count := incr.Val()
	resetIn := ttl.Val()
	if resetIn < 0 {
		// Key exists without an expiry (or is brand new): start the window.
		resetIn = window
		if err := s.client.Expire(ctx, "rate_limit:"+key, window).Err(); err != nil {
			return RateLimitResult{}, err
		}
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   int(count) <= limit,
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}

var rateLimitStore RateLimitStore = NewMemoryStore()

// UseRateLimitStore swaps the backing store (Redis when REDIS_ADDR is set).
func UseRateLimitStore(s RateLimitStore) {
	rateLimitStore = s
}

// RateLimit enforces a fixed-window limit keyed by client IP + path and
// stamps X-RateLimit-Remaining / X-RateLimit-Reset on every response it
// lets through. A store failure fails open.
func RateLimit(max int, window time.Duration) fiber.Handler {
	return rateLimit(max, window, false)
}

// RateLimitByTenant keys by the authenticated tenant instead of the client
// IP, falling back to IP when no tenant is resolved. Register it after auth.
func RateLimitByTenant(max int, window time.Duration) fiber.Handler {
	return rateLimit(max, window, true)
}

func rateLimit(max int, window time.Duration, byTenant bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP() + ":" + c.Path()
		if byTenant {
			if auth := Auth(c); auth != nil && auth.Tenant != nil {
				key = "tenant:" + auth.Tenant.Id + ":" + c.Path()
			}
		}

		res, err := rateLimitStore.Check(c.UserContext(), key, max, window)
		if err != nil {
			logger.L().Warn("rate limit store unavailable", zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.Itoa(int(res.ResetIn.Seconds())))

		if !res.Allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		}
		return c.Next()
	}
}
