package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/omanfreight/quote-service/api/responses"
	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/omanfreight/quote-service/pkg/logger"
	"github.com/omanfreight/quote-service/pkg/ratelimit"
)

type rateLimitRecorder interface {
	IncRateLimited(policy string)
}

// RateLimit rejects callers over the policy's per-IP budget before the
// handler does any work. Limiter failures are reported as 503.
func RateLimit(policy string, limiter ratelimit.Limiter, recorder rateLimitRecorder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestClientIP(r)

			decision, err := limiter.Allow(ctx, ip)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !decision.Allowed {
				respondRateLimited(ctx, logg, w, policy, ip, decision)
				if recorder != nil {
					recorder.IncRateLimited(policy)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy, ip string, decision ratelimit.Decision) {
	retryAfter := retryAfterSeconds(decision)
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"policy":              policy,
			"ip":                  ip,
			"attempts":            decision.Count,
			"limit":               decision.Limit,
			"retry_after_seconds": retryAfter,
		})
		logg.Warn(logCtx, "quote.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, please try again later").
		WithDetails(map[string]any{"retryAfterSeconds": retryAfter})
	responses.WriteError(ctx, nil, w, err)
}

func retryAfterSeconds(decision ratelimit.Decision) int {
	secs := int(math.Ceil(decision.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
