package collect

import (
	"sync"
	"time"
)

// RateLimiter is a per-IP sliding-window admission check. Each call prunes
// timestamps older than the window before deciding, so the cost is
// O(requests-in-window) per call. That is the contract, not an accident:
// the cap is low enough that the linear scan is fine, and the exact
// prune-check-record order is what the abuse-mitigation behavior relies on.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether ip is under the limit and records the request if so.
func (rl *RateLimiter) Allow(ip string) bool {
	now := rl.now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	hits := rl.hits[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.max {
		rl.hits[ip] = kept
		return false
	}

	rl.hits[ip] = append(kept, now)
	return true
}
