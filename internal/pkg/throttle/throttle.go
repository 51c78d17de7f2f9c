package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidLimit is returned for a non-positive attempt limit or window.
	ErrInvalidLimit = errors.New("throttle: limit and window must be positive")
)

// Limiter reports whether another attempt for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Redis is a fixed-window counter: the first attempt starts the window and
// sets its TTL, and attempts beyond max are refused until the key expires.
type Redis struct {
	client redis.UniversalClient
	prefix string
	max    int64
	window time.Duration
}

// NewRedis returns a limiter allowing max attempts per window.
func NewRedis(client redis.UniversalClient, max int, window time.Duration) (*Redis, error) {
	if max <= 0 || window <= 0 {
		return nil, ErrInvalidLimit
	}

	return &Redis{
		client: client,
		prefix: "throttle:",
		max:    int64(max),
		window: window,
	}, nil
}

// Allow counts one attempt and reports whether it is within the limit.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	fk := r.prefix + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, fk)
	pipe.ExpireNX(ctx, fk, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("throttle: count %q: %w", key, err)
	}

	return incr.Val() <= r.max, nil
}

// Reset clears the counter for key.
func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("throttle: reset %q: %w", key, err)
	}
	return nil
}

// Unlimited allows every attempt.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }

func (Unlimited) Reset(context.Context, string) error { return nil }
