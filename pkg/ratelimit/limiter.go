// Package ratelimit implements per-key sliding-window limits with an
// in-process backend and a Redis backend shared across instances.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/omanfreight/quote-service/pkg/config"
	"github.com/omanfreight/quote-service/pkg/redis"
)

const (
	PolicyQuote       = "quote"
	PolicyQuoteSubmit = "quote_submit"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Count      int
	Limit      int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Policy names a limit of Limit requests per Window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

func (p Policy) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("rate limit policy name is required")
	}
	if p.Limit <= 0 || p.Window <= 0 {
		return fmt.Errorf("rate limit policy %s: limit and window must be positive", p.Name)
	}
	return nil
}

// PoliciesFromConfig returns the quote and quote_submit policies.
func PoliciesFromConfig(cfg config.RateLimitConfig) (Policy, Policy) {
	quote := Policy{Name: PolicyQuote, Limit: cfg.QuoteLimit, Window: cfg.Window}
	submit := Policy{Name: PolicyQuoteSubmit, Limit: cfg.SubmitLimit, Window: cfg.Window}
	return quote, submit
}

// New builds a limiter for policy on the configured backend. The Redis
// client is only required for the redis backend.
func New(cfg config.RateLimitConfig, policy Policy, client *redis.Client) (Limiter, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	if cfg.UsesRedis() {
		if client == nil {
			return nil, fmt.Errorf("rate limit policy %s: redis backend requires a redis client", policy.Name)
		}
		return NewRedisLimiter(client, policy, nil), nil
	}
	return NewMemoryLimiter(policy, nil), nil
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "anonymous"
	}
	return key
}
