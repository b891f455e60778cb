package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sweepLockKeyFormat = "qs:quote-sweep:lock:%s"
	minLeaseTTL        = time.Minute
)

// Lock guards a maintenance sweep so a single worker per environment expires
// quotes and prunes the outbox in any one interval.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
	Holder(ctx context.Context) (string, error)
}

type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// SweepLock is a Redis lease named after the deployment environment. The
// stored value identifies the worker holding it.
type SweepLock struct {
	store  leaseStore
	key    string
	ttl    time.Duration
	worker string

	mu    sync.Mutex
	token string
}

// LockKey returns the lease key for env; an empty env maps to "local".
func LockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(sweepLockKeyFormat, env)
}

// LeaseTTL returns override when set. Otherwise the lease lapses a tenth of
// an interval before the next tick so a crashed worker never blocks two sweeps.
func LeaseTTL(interval, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	ttl := interval - interval/10
	if ttl < minLeaseTTL {
		ttl = minLeaseTTL
	}
	return ttl
}

// NewSweepLock builds the lease for env.
func NewSweepLock(store leaseStore, env string, ttl time.Duration) (*SweepLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for sweep lock")
	}
	if ttl <= 0 {
		return nil, errors.New("sweep lock ttl must be positive")
	}
	worker, err := os.Hostname()
	if err != nil || worker == "" {
		worker = "unknown-host"
	}
	return &SweepLock{store: store, key: LockKey(env), ttl: ttl, worker: worker}, nil
}

// Key exposes the Redis key backing the lease.
func (l *SweepLock) Key() string { return l.key }

func (l *SweepLock) Acquire(ctx context.Context) (bool, error) {
	token := fmt.Sprintf("%s/%s", l.worker, uuid.NewString())
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire sweep lease: %w", err)
	}
	if ok {
		l.mu.Lock()
		l.token = token
		l.mu.Unlock()
	}
	return ok, nil
}

// Release drops the lease if this worker still holds it. It runs detached
// from ctx so a shutdown signal mid-sweep still frees the key.
func (l *SweepLock) Release(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()
	if token == "" {
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	current, err := l.store.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read sweep lease: %w", err)
	}
	if current != token {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("drop sweep lease: %w", err)
	}
	return nil
}

// Holder reports which worker owns the lease, or "" when it is free.
func (l *SweepLock) Holder(ctx context.Context) (string, error) {
	value, err := l.store.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read sweep lease: %w", err)
	}
	return value, nil
}
