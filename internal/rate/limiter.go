package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning parameters.
type Config struct {
	KeyPrefix   string
	MaxAttempts int
	Window      time.Duration
}

// Limiter counts failed admin logins per client IP in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Check returns ErrRateLimited when ip has spent its failure budget in the
// current window. It does not count the attempt.
func (l *Limiter) Check(ctx context.Context, ip string) error {
	count, err := l.redis.Get(ctx, l.key(ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Increment records one failed attempt and returns ErrRateLimited when this
// attempt exhausted the budget.
func (l *Limiter) Increment(ctx context.Context, ip string) error {
	count, err := l.incrementWithTTL(ctx, l.key(ip), l.config.Window)
	if err != nil {
		return err
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Reset clears the failure counter for ip after a successful login.
func (l *Limiter) Reset(ctx context.Context, ip string) error {
	if err := l.redis.Del(ctx, l.key(ip)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the failures recorded for ip in the current window.
func (l *Limiter) Attempts(ctx context.Context, ip string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) key(ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return l.config.KeyPrefix + "al:" + ip
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
