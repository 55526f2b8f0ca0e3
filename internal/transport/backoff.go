package transport

import (
	"fmt"
	"math/rand"
	"time"
)

// BackoffPolicy describes exponential retry backoff in milliseconds.
//
// attempt 0 waits BaseMs, attempt 1 waits 2*BaseMs, attempt 2 waits
// 4*BaseMs, and so on, capped at CapMs. Jitter is symmetric: the computed
// delay is scaled by a random factor in [1-JitterRatio, 1+JitterRatio).
type BackoffPolicy struct {
	BaseMs      int64
	CapMs       int64
	JitterRatio float64
}

// DefaultBackoffPolicy matches the retry envelope used by all connectors.
var DefaultBackoffPolicy = BackoffPolicy{
	BaseMs:      250,
	CapMs:       5000,
	JitterRatio: 0.10,
}

// ComputeDelay returns the backoff delay for the given attempt (0-based).
//
// randFn supplies values in [0, 1) and is injectable for deterministic
// tests; pass rand.Float64 in production code.
func ComputeDelay(attempt int, policy BackoffPolicy, randFn func() float64) (time.Duration, error) {
	if attempt < 0 {
		return 0, fmt.Errorf("attempt must be >= 0, got %d", attempt)
	}
	if policy.BaseMs <= 0 {
		return 0, fmt.Errorf("base_ms must be > 0, got %d", policy.BaseMs)
	}
	if policy.CapMs <= 0 {
		return 0, fmt.Errorf("cap_ms must be > 0, got %d", policy.CapMs)
	}
	if policy.JitterRatio < 0 {
		return 0, fmt.Errorf("jitter_ratio must be >= 0, got %f", policy.JitterRatio)
	}

	raw := policy.BaseMs << uint(attempt)
	if raw <= 0 || raw > policy.CapMs { // shift overflow lands here too
		raw = policy.CapMs
	}

	if policy.JitterRatio == 0 {
		return time.Duration(raw) * time.Millisecond, nil
	}

	if randFn == nil {
		randFn = rand.Float64
	}

	// randFn() in [0, 1) -> multiplier in [1-j, 1+j)
	mult := 1.0 + policy.JitterRatio*(2.0*randFn()-1.0)
	jittered := int64(float64(raw) * mult)
	if jittered < 0 {
		jittered = 0
	}
	if jittered > policy.CapMs {
		jittered = policy.CapMs
	}

	return time.Duration(jittered) * time.Millisecond, nil
}
