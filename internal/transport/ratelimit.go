package transport

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between requests to one venue.
//
// Public exchange APIs rate-limit by request frequency, not burst size, so
// the limiter simply spaces requests out: Acquire blocks until at least the
// configured interval has elapsed since the previous request. The zero
// interval disables waiting. Safe for concurrent use; concurrent callers
// are serialized.
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
	clock       func() time.Time // injectable for tests
}

// NewRateLimiter creates a limiter with the given minimum interval between
// requests. A negative interval is a configuration error.
func NewRateLimiter(minInterval time.Duration) (*RateLimiter, error) {
	if minInterval < 0 {
		return nil, fmt.Errorf("min interval must be >= 0, got %s", minInterval)
	}
	return &RateLimiter{
		minInterval: minInterval,
		clock:       time.Now,
	}, nil
}

// Acquire blocks until the rate limit allows the next request, or until the
// context is cancelled. Call before each HTTP request.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	if !r.last.IsZero() {
		if wait := r.minInterval - now.Sub(r.last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	r.last = r.clock()
	return nil
}
