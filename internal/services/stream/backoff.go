package stream

import "time"

// backoff returns the delay before reconnection attempt n (1-based):
// base * 2^(n-1), capped at limit.
func backoff(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 32 {
		return limit
	}
	delay := base * time.Duration(1<<uint(attempt-1))
	if delay > limit || delay <= 0 {
		delay = limit
	}
	return delay
}
