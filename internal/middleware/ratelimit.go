// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when the limit counter in
// Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through. The default for read and submit
	// routes, where availability beats strictness.
	FailOpen FailPolicy = iota
	// FailClosed answers 503. Reserved for credential endpoints where an
	// unthrottled burst is worse than a refused login.
	FailClosed
)

// throttlingDisabled reports whether limits are switched off for the current
// environment. Local development and the test suite run unthrottled; an unset
// APP_ENV counts as development.
func throttlingDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// CheckRateLimit counts one hit for id against the named resource and reports
// whether it is still under limit. The counter is a plain INCR under
// rl:<resource>:<id>, given its window TTL on first increment.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if throttlingDisabled() {
		return true, nil
	}
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	hits, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if hits == 1 {
		rdb.Expire(ctx, key, window)
	}
	return hits <= int64(limit), nil
}

// RateLimit returns a fail-open Fiber handler allowing `limit` requests per
// `window`, keyed by the authenticated user when one is set in locals and by
// remote IP otherwise. An optional name labels the counter; it defaults to
// the request path.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := fmt.Sprintf("ip:%s", c.IP())
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(context.Background(), rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				log.Printf("WARNING: rate limiter unreachable, refusing %s (resource: %s): %v", c.Path(), resource, err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
