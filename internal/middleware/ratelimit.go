package middleware

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vibewear/api/pkg/response"
)

// Counter is a windowed counter. Incr counts a hit and reports the time left
// in the window; Peek reads the current count without changing it.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Peek(ctx context.Context, key string) (int64, time.Duration, error)
}

// RedisCounter is a fixed-window counter; the window starts with the first hit.
type RedisCounter struct {
	redis *redis.Client
}

func NewRedisCounter(redisClient *redis.Client) *RedisCounter {
	return &RedisCounter{redis: redisClient}
}

func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, key, window).Err(); err != nil {
			return count, window, err
		}
		return count, window, nil
	}

	ttl, err := r.redis.TTL(ctx, key).Result()
	if err != nil {
		return count, 0, err
	}
	if ttl < 0 {
		// key lost its expiry; start a fresh window
		r.redis.Expire(ctx, key, window)
		ttl = window
	}
	return count, ttl, nil
}

func (r *RedisCounter) Peek(ctx context.Context, key string) (int64, time.Duration, error) {
	count, err := r.redis.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	ttl, err := r.redis.TTL(ctx, key).Result()
	if err != nil {
		return count, 0, err
	}
	return count, ttl, nil
}

type RateLimiter struct {
	counter Counter
	log     zerolog.Logger
}

func NewRateLimiter(counter Counter, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{counter: counter, log: log.With().Str("component", "ratelimit").Logger()}
}

// Limit allows maxRequests per window per client key. Counter failures let
// the request through.
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return rl.limit(keyPrefix, maxRequests, window, func(c *fiber.Ctx) error {
		return response.RateLimited(c)
	})
}

// DesignLimit caps free designs per client per day. Only designs that were
// delivered count: the quota is checked up front and charged after the
// handler answered 2xx, so rejected prompts and provider failures are free.
// Concurrent requests from one client can overshoot by the number in flight.
func (rl *RateLimiter) DesignLimit(maxPerDay int) fiber.Handler {
	const window = 24 * time.Hour

	return func(c *fiber.Ctx) error {
		if maxPerDay <= 0 {
			return c.Next()
		}

		clientKey := GetClientKey(c)
		key := "ratelimit:designs:" + clientKey

		used, ttl, err := rl.counter.Peek(c.UserContext(), key)
		if err != nil {
			rl.log.Warn().Err(err).Str("key", key).Msg("rate limit counter unavailable")
			return c.Next()
		}
		if used >= int64(maxPerDay) {
			if ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Seconds())))
			}
			rl.log.Info().Str("limit", "designs").Str("client", clientKey).Int64("count", used).Msg("limit reached")
			return response.DesignLimit(c, maxPerDay)
		}

		if err := c.Next(); err != nil {
			return err
		}
		if status := c.Response().StatusCode(); status < 200 || status > 299 {
			return nil
		}

		count, _, err := rl.counter.Incr(c.UserContext(), key, window)
		if err != nil {
			rl.log.Warn().Err(err).Str("key", key).Msg("failed to count design")
			return nil
		}
		remaining := maxPerDay - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(maxPerDay))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		return nil
	}
}

func (rl *RateLimiter) AnalysisLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("analysis", maxPerMin, time.Minute)
}

func (rl *RateLimiter) CheckoutLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("checkout", maxPerHour, time.Hour)
}

func (rl *RateLimiter) UploadLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("upload", maxPerHour, time.Hour)
}

func (rl *RateLimiter) limit(keyPrefix string, maxRequests int, window time.Duration, reject fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if maxRequests <= 0 {
			return c.Next()
		}

		clientKey := GetClientKey(c)
		key := "ratelimit:" + keyPrefix + ":" + clientKey

		count, ttl, err := rl.counter.Incr(c.UserContext(), key, window)
		if err != nil {
			rl.log.Warn().Err(err).Str("key", key).Msg("rate limit counter unavailable")
			return c.Next()
		}

		if count > int64(maxRequests) {
			if ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Seconds())))
			}
			rl.log.Info().Str("limit", keyPrefix).Str("client", clientKey).Int64("count", count).Msg("limit reached")
			return reject(c)
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(maxRequests-int(count)))
		return c.Next()
	}
}
