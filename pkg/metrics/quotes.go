package metrics

import (
	"strings"
	"time"

	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OperationCalculate = "calculate"
	OperationSubmit    = "submit"
	OperationLookup    = "lookup"

	OutcomeOK = "ok"
)

// QuoteMetrics records request outcomes and latency of quote operations.
type QuoteMetrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited *prometheus.CounterVec
}

// NewQuoteMetrics registers the quote metrics on the provided registerer.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		return &QuoteMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_requests_total",
		Help: "Quote operations by outcome.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_duration_seconds",
		Help:    "Duration of quote operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	rateLimited := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Requests rejected by a rate limit policy.",
	}, []string{"policy"})
	reg.MustRegister(requests, duration, rateLimited)
	return &QuoteMetrics{
		requests:    requests,
		duration:    duration,
		rateLimited: rateLimited,
	}
}

// Observe records one finished operation. A nil err counts as ok.
func (m *QuoteMetrics) Observe(operation string, err error, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	op := normalizeLabel(operation)
	m.requests.WithLabelValues(op, Outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// IncRateLimited counts a rejection by the named policy.
func (m *QuoteMetrics) IncRateLimited(policy string) {
	if m == nil || m.rateLimited == nil {
		return
	}
	m.rateLimited.WithLabelValues(normalizeLabel(policy)).Inc()
}

// Outcome maps an error to a low-cardinality label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return strings.ToLower(string(pkgerrors.CodeInternal))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
