package utils

import (
	"math/rand"
	"time"
)

// ExponentialBackoff returns base * 2^(attempt-1) capped at max. attempt is 1-based;
// attempt <= 0 yields no delay.
func ExponentialBackoff(attempt int, base time.Duration, max time.Duration) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max || delay <= 0 {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

// CalculateExponentialBackoffWithJitter computes a jittered exponential backoff delay.
// - count: Retry attempt number (1-based, e.g., 1 for first retry)
// - base: Base delay (e.g., 1 * time.Second)
// - max: Maximum allowable delay (e.g., 30 * time.Second)
// Jitter is -12.5% to +12.5% of the un-jittered delay; the result never exceeds max.
func CalculateExponentialBackoffWithJitter(count int, base time.Duration, max time.Duration) time.Duration {
	baseDelay := ExponentialBackoff(count, base, max)
	if baseDelay < 8 {
		return baseDelay
	}

	jitter := time.Duration(rand.Int63n(int64(baseDelay/4))) - (baseDelay / 8)
	delay := baseDelay + jitter

	if delay > max {
		delay = max
	}
	return delay
}
