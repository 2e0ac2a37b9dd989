// Package moderation holds the per-message gate checks the bridge runs
// before letting a chat message produce a reply: sliding-window rate
// limiting and spam detection.
package moderation

import (
	"sync"
	"time"
)

// RateLimiter throttles actions per key with a sliding window: at most
// MaxCalls timestamps may fall within the trailing Period. Entries older
// than the window are pruned lazily on each check, so ad-hoc keys
// (viewer names) do not leak memory over a long session.
type RateLimiter struct {
	mu       sync.Mutex
	maxCalls int
	period   time.Duration
	calls    map[string][]time.Time
	now      func() time.Time
}

func NewRateLimiter(maxCalls int, period time.Duration) *RateLimiter {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if period <= 0 {
		period = 5 * time.Second
	}
	return &RateLimiter{
		maxCalls: maxCalls,
		period:   period,
		calls:    make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether key may act now and, if so, records the action.
// A denied call records nothing.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.period)

	recent := rl.calls[key][:0]
	for _, ts := range rl.calls[key] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= rl.maxCalls {
		rl.calls[key] = recent
		return false
	}

	rl.calls[key] = append(recent, now)
	return true
}

// Reset clears the recorded history for key.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.calls, key)
}
