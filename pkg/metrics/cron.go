package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics covers the quote maintenance sweep run by the cron worker.
type SweepMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	leaseBusy   prometheus.Counter
}

func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	if reg == nil {
		return &SweepMetrics{}
	}
	m := &SweepMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quote_sweep_job_duration_seconds",
			Help:    "Duration of quote sweep jobs in seconds.",
			Buckets: []float64{.05, .25, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quote_sweep_job_runs_total",
			Help: "Quote sweep job runs by outcome.",
		}, []string{"job", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quote_sweep_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run of each sweep job.",
		}, []string{"job"}),
		leaseBusy: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quote_sweep_lease_busy_total",
			Help: "Sweeps skipped because another worker held the lease.",
		}),
	}
	reg.MustRegister(m.duration, m.runs, m.lastSuccess, m.leaseBusy)
	return m
}

// ObserveJob records one run. Errors are labelled the same way as quote
// request outcomes.
func (m *SweepMetrics) ObserveJob(job string, elapsed time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	m.runs.WithLabelValues(job, Outcome(err)).Inc()
	if err == nil {
		m.lastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
}

func (m *SweepMetrics) IncLeaseBusy() {
	if m == nil || m.leaseBusy == nil {
		return
	}
	m.leaseBusy.Inc()
}
