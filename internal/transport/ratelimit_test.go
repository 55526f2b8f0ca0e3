package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_NewRateLimiter tests constructor validation
func Test_NewRateLimiter(t *testing.T) {
	limiter, err := NewRateLimiter(time.Second)
	require.NoError(t, err)
	assert.NotNil(t, limiter)

	limiter, err = NewRateLimiter(0)
	require.NoError(t, err, "A zero interval disables waiting but is valid")
	assert.NotNil(t, limiter)

	_, err = NewRateLimiter(-time.Second)
	require.Error(t, err, "A negative interval is a configuration error")
}

// Test_RateLimiter_Acquire tests spacing behavior with an injected clock
func Test_RateLimiter_Acquire(t *testing.T) {
	limiter, err := NewRateLimiter(100 * time.Millisecond)
	require.NoError(t, err)

	// First acquire never waits.
	start := time.Now()
	require.NoError(t, limiter.Acquire(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond, "First Acquire should not block")

	// Second acquire waits out the remaining interval.
	start = time.Now()
	require.NoError(t, limiter.Acquire(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond,
		"Second Acquire should wait for the minimum interval")
}

// Test_RateLimiter_ZeroInterval verifies back-to-back acquires don't block
func Test_RateLimiter_ZeroInterval(t *testing.T) {
	limiter, err := NewRateLimiter(0)
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Acquire(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond,
		"Zero interval should never wait")
}

// Test_RateLimiter_ContextCancel verifies a cancelled context aborts the wait
func Test_RateLimiter_ContextCancel(t *testing.T) {
	limiter, err := NewRateLimiter(time.Hour)
	require.NoError(t, err)

	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = limiter.Acquire(ctx)
	require.Error(t, err, "Acquire must not outlive its context")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Test_RateLimiter_InjectedClock verifies the clock abstraction
func Test_RateLimiter_InjectedClock(t *testing.T) {
	now := time.Unix(1000, 0)
	limiter, err := NewRateLimiter(time.Second)
	require.NoError(t, err)
	limiter.clock = func() time.Time { return now }

	require.NoError(t, limiter.Acquire(context.Background()))

	// Advance the fake clock past the interval; no real waiting happens.
	now = now.Add(2 * time.Second)
	start := time.Now()
	require.NoError(t, limiter.Acquire(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond,
		"Elapsed fake time should satisfy the interval without sleeping")
}
