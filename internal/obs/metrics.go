package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the ledger's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so components can be built without instrumentation.
type Metrics struct {
	EntriesPosted       *prometheus.CounterVec
	PostFailures        *prometheus.CounterVec
	PostDuration        prometheus.Histogram
	DuplicateDeliveries *prometheus.CounterVec
	LockContention      prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EntriesPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_entries_posted_total",
			Help: "Journal entries appended, by transaction type.",
		}, []string{"type"}),
		PostFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_post_failures_total",
			Help: "Journal posts rejected or failed, by reason.",
		}, []string{"reason"}),
		PostDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_post_duration_seconds",
			Help:    "Latency of journal posts including validation and persistence.",
			Buckets: prometheus.DefBuckets,
		}),
		DuplicateDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_duplicate_deliveries_total",
			Help: "Webhook deliveries suppressed as already processed, by command.",
		}, []string{"command"}),
		LockContention: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_lock_contention_total",
			Help: "Lock acquisitions that found the key already held.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.EntriesPosted, m.PostFailures, m.PostDuration, m.DuplicateDeliveries, m.LockContention)
	}
	return m
}

func (m *Metrics) ObservePosted(txType string, seconds float64) {
	if m == nil {
		return
	}
	m.EntriesPosted.WithLabelValues(txType).Inc()
	m.PostDuration.Observe(seconds)
}

func (m *Metrics) ObserveFailure(reason string) {
	if m == nil {
		return
	}
	m.PostFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveDuplicate(command string) {
	if m == nil {
		return
	}
	m.DuplicateDeliveries.WithLabelValues(command).Inc()
}

func (m *Metrics) ObserveContention() {
	if m == nil {
		return
	}
	m.LockContention.Inc()
}
