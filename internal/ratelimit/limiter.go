package ratelimit

import (
	"context"
	"time"

	"github.com/harsh-haria/unified-event-analytics-engine/internal/store"
	"github.com/harsh-haria/unified-event-analytics-engine/params"
)

// Limiter bounds request rates with a fixed window counter per key. The
// counter increment and threshold check are one atomic operation in the
// backing storage, so concurrent requests for the same credential cannot
// both observe a stale under-threshold count.
type Limiter struct {
	storage store.Storage
	max     int64
	window  time.Duration
}

func NewLimiter(storage store.Storage, max int64, window time.Duration) *Limiter {
	if max <= 0 {
		max = params.DefaultRateLimitMax
	}
	if window <= 0 {
		window = params.DefaultRateLimitWindow
	}
	return &Limiter{
		storage: store.StorageWithPrefix(storage, params.RateLimitKeyPrefix),
		max:     max,
		window:  window,
	}
}

// Allow consumes one slot for key in the current window and reports whether
// the request is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.storage.Incr(ctx, key, 1, l.window)
	if err != nil {
		return false, err
	}
	return count <= l.max, nil
}
