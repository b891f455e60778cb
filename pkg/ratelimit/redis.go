package ratelimit

import (
	"context"
	"time"

	"github.com/omanfreight/quote-service/pkg/redis"
)

// WindowStore is the Redis surface used by RedisLimiter.
type WindowStore interface {
	SlidingWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration, now time.Time) (redis.WindowResult, error)
}

// RedisLimiter enforces the policy in a Redis sorted set so every instance
// shares one window per key.
type RedisLimiter struct {
	store  WindowStore
	policy Policy
	clock  func() time.Time
}

func NewRedisLimiter(store WindowStore, policy Policy, clock func() time.Time) *RedisLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &RedisLimiter{store: store, policy: policy, clock: clock}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	scope := l.policy.Name + ":" + normalizeKey(key)
	res, err := l.store.SlidingWindowAllow(ctx, scope, int64(l.policy.Limit), l.policy.Window, l.clock())
	if err != nil {
		return Decision{Limit: l.policy.Limit}, err
	}
	return Decision{
		Allowed:    res.Allowed,
		Count:      int(res.Count),
		Limit:      l.policy.Limit,
		RetryAfter: res.RetryAfter,
	}, nil
}
