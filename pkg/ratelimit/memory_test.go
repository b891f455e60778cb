package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func TestMemoryLimiterRejectsTwentyFirstRequest(t *testing.T) {
	clock := newClock()
	limiter := NewMemoryLimiter(Policy{Name: PolicyQuote, Limit: 20, Window: time.Minute}, clock.Now)
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		d, err := limiter.Allow(ctx, "203.0.113.7")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Allowed || d.Count != i {
			t.Fatalf("request %d: expected allowed with count %d, got %+v", i, i, d)
		}
		clock.Advance(time.Second)
	}

	d, _ := limiter.Allow(ctx, "203.0.113.7")
	if d.Allowed {
		t.Fatalf("expected 21st request to be rejected")
	}
	if d.Limit != 20 || d.Count != 20 {
		t.Fatalf("unexpected decision %+v", d)
	}
	// first hit was 20s ago, so it leaves the window in 40s
	if d.RetryAfter != 40*time.Second {
		t.Fatalf("expected retry after 40s, got %v", d.RetryAfter)
	}

	other, _ := limiter.Allow(ctx, "198.51.100.1")
	if !other.Allowed {
		t.Fatalf("limits must be tracked per key")
	}

	clock.Advance(41 * time.Second)
	d, _ = limiter.Allow(ctx, "203.0.113.7")
	if !d.Allowed {
		t.Fatalf("expected request to succeed once the oldest hit slid out, got %+v", d)
	}
}

func TestMemoryLimiterRecoversAfterFullWindow(t *testing.T) {
	clock := newClock()
	limiter := NewMemoryLimiter(Policy{Name: PolicyQuoteSubmit, Limit: 5, Window: time.Minute}, clock.Now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		limiter.Allow(ctx, "ip")
	}
	for i := 0; i < 3; i++ {
		if d, _ := limiter.Allow(ctx, "ip"); d.Allowed {
			t.Fatalf("expected rejection while window is full")
		}
	}

	clock.Advance(time.Minute)
	for i := 1; i <= 5; i++ {
		d, _ := limiter.Allow(ctx, "ip")
		if !d.Allowed {
			t.Fatalf("request %d after window should pass", i)
		}
	}
}

func TestMemoryLimiterPrunesIdleKeys(t *testing.T) {
	clock := newClock()
	limiter := NewMemoryLimiter(Policy{Name: PolicyQuote, Limit: 2, Window: time.Minute}, clock.Now)
	ctx := context.Background()

	limiter.Allow(ctx, "a")
	limiter.Allow(ctx, "b")
	if limiter.Len() != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", limiter.Len())
	}

	clock.Advance(2 * time.Minute)
	limiter.Allow(ctx, "c")
	if limiter.Len() != 1 {
		t.Fatalf("expected idle keys to be pruned, got %d", limiter.Len())
	}
}

func TestMemoryLimiterConcurrentAccess(t *testing.T) {
	limiter := NewMemoryLimiter(Policy{Name: PolicyQuote, Limit: 20, Window: time.Minute}, newClock().Now)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d, _ := limiter.Allow(context.Background(), "shared"); d.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != 20 {
		t.Fatalf("expected exactly 20 allowed, got %d", allowed)
	}
}

func TestNormalizeKeyDefaultsToAnonymous(t *testing.T) {
	if got := normalizeKey("  "); got != "anonymous" {
		t.Fatalf("unexpected key %q", got)
	}
}
