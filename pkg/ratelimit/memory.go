package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps a sliding window of accepted request timestamps per
// key. State is process-local and lost on restart.
type MemoryLimiter struct {
	policy Policy
	clock  func() time.Time

	mu        sync.Mutex
	hits      map[string][]time.Time
	lastPrune time.Time
}

func NewMemoryLimiter(policy Policy, clock func() time.Time) *MemoryLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryLimiter{
		policy: policy,
		clock:  clock,
		hits:   make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	key = normalizeKey(key)
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) >= l.policy.Window {
		l.pruneLocked(now)
	}

	window := l.activeLocked(key, now)
	decision := Decision{Limit: l.policy.Limit, Count: len(window)}
	if len(window) >= l.policy.Limit {
		decision.RetryAfter = window[0].Add(l.policy.Window).Sub(now)
		l.hits[key] = window
		return decision, nil
	}

	l.hits[key] = append(window, now)
	decision.Allowed = true
	decision.Count = len(window) + 1
	return decision, nil
}

// activeLocked drops timestamps that fell out of the window.
func (l *MemoryLimiter) activeLocked(key string, now time.Time) []time.Time {
	stamps := l.hits[key]
	cutoff := now.Add(-l.policy.Window)
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}

func (l *MemoryLimiter) pruneLocked(now time.Time) {
	for key := range l.hits {
		if len(l.activeLocked(key, now)) == 0 {
			delete(l.hits, key)
		}
	}
	l.lastPrune = now
}

// Len reports how many keys are currently tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}
