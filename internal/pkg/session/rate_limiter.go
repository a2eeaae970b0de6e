// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxLoginAttempts = 5

type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// CheckLoginAttempt allows up to 5 attempts per ip+email per 15 minutes.
// When the limit is exceeded, retryAfter holds the time until the window
// resets; it is zero while attempts are still allowed.
func (r *RateLimiter) CheckLoginAttempt(ctx context.Context, ip, email string) (allowed bool, retryAfter time.Duration, err error) {
	key := fmt.Sprintf("ratelimit:login:%s:%s", ip, email)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment login attempt: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, 15*time.Minute)
	}

	if count <= maxLoginAttempts {
		return true, 0, nil
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		// Counter without expiry (Expire lost) or TTL unavailable: report the
		// full window rather than an unbounded lockout.
		ttl = 15 * time.Minute
	}
	return false, ttl, nil
}

// ResetLoginAttempts clears the counter after a successful login.
func (r *RateLimiter) ResetLoginAttempts(ctx context.Context, ip, email string) error {
	key := fmt.Sprintf("ratelimit:login:%s:%s", ip, email)
	return r.client.Del(ctx, key).Err()
}
