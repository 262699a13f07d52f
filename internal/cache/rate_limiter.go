package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// counterStore is the subset of the redis client the limiter needs.
type counterStore interface {
	Incr(ctx context.Context, key string) *redisv9.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redisv9.BoolCmd
	TTL(ctx context.Context, key string) *redisv9.DurationCmd
}

// RateLimiter is a fixed-window request counter kept in Redis so every replica shares it.
type RateLimiter struct {
	client counterStore
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redisv9.Client, limit int64, window time.Duration) *RateLimiter {
	return newRateLimiter(client, limit, window)
}

func newRateLimiter(client counterStore, limit int64, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow counts one request for key and reports whether it fits in the current window.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	redisKey := l.counterKey(key)
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr rate counter failed: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire rate counter failed: %w", err)
		}
	} else if count > l.limit {
		// A counter whose first EXPIRE was lost would otherwise never reset.
		if err := l.ensureExpiry(ctx, redisKey); err != nil {
			return false, 0, err
		}
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.limit, remaining, nil
}

func (l *RateLimiter) ensureExpiry(ctx context.Context, redisKey string) error {
	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("redis ttl rate counter failed: %w", err)
	}
	if ttl >= 0 {
		return nil
	}
	if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
		return fmt.Errorf("redis expire rate counter failed: %w", err)
	}
	return nil
}

func (l *RateLimiter) counterKey(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}
