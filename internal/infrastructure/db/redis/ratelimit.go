package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimiter implements a fixed-window counter backed by Redis.
// Key format: ratelimit:<scope>:<client key>, expiring with the window.
//
// The limiter fails open: when Redis is unreachable the request is allowed
// and the error logged, so a cache outage never locks every client out of
// the login flow.
type RateLimiter struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRateLimiter creates a RateLimiter wrapping the given Redis client.
func NewRateLimiter(client *redis.Client, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{client: client, log: log}
}

// Allow increments the counter for key and reports whether the attempt is
// within limit for the current window. The first increment in a window sets
// the expiry; counting starts over once it lapses.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := "ratelimit:" + key

	n, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("rate limit check failed, allowing")
		return true, nil
	}
	if n == 1 {
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return true, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= int64(limit), nil
}
