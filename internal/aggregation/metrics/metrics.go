package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for agency aggregation.
// All methods are safe on a nil receiver.
type Metrics struct {
	Recomputes          *prometheus.CounterVec
	Inconsistencies     prometheus.Counter
	SignalFailures      prometheus.Counter
	ComplianceFallbacks *prometheus.CounterVec
	BreakerTransitions  *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
	ReconcileRuns       *prometheus.CounterVec
	ReconcileAgencies   prometheus.Histogram
	RecomputeDuration   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Recomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_aggregate_recomputes_total",
			Help: "Aggregate recomputes by outcome",
		}, []string{"outcome"}),
		Inconsistencies: factory.NewCounter(prometheus.CounterOpts{
			Name: "vouch_aggregate_inconsistencies_total",
			Help: "Recompute attempts rejected by the aggregate invariant check",
		}),
		SignalFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "vouch_aggregate_signal_failures_total",
			Help: "Review-change signals whose refresh failed; the reconciler heals these",
		}),
		ComplianceFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_compliance_fallbacks_total",
			Help: "Compliance lookups served from the last persisted value, by reason",
		}, []string{"reason"}),
		BreakerTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_compliance_breaker_transitions_total",
			Help: "Compliance circuit breaker state changes",
		}, []string{"to"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_aggregate_cache_lookups_total",
			Help: "Aggregate cache lookups by result",
		}, []string{"result"}),
		ReconcileRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_reconcile_runs_total",
			Help: "Reconciler sweeps by outcome",
		}, []string{"outcome"}),
		ReconcileAgencies: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_reconcile_agencies",
			Help:    "Agencies refreshed per reconciler sweep",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		RecomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_aggregate_recompute_duration_seconds",
			Help:    "Duration of aggregate recomputes including retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRecompute records a finished recompute: "ok" or "error".
func (m *Metrics) IncrementRecompute(outcome string) {
	if m == nil {
		return
	}
	m.Recomputes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementInconsistency() {
	if m == nil {
		return
	}
	m.Inconsistencies.Inc()
}

func (m *Metrics) IncrementSignalFailure() {
	if m == nil {
		return
	}
	m.SignalFailures.Inc()
}

// IncrementComplianceFallback records why the last-known compliance was used:
// "provider_error", "breaker_open" or "no_provider".
func (m *Metrics) IncrementComplianceFallback(reason string) {
	if m == nil {
		return
	}
	m.ComplianceFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementBreakerTransition(to string) {
	if m == nil {
		return
	}
	m.BreakerTransitions.WithLabelValues(to).Inc()
}

// IncrementCacheLookup records "hit", "miss" or "error".
func (m *Metrics) IncrementCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveReconcile(outcome string, agencies int) {
	if m == nil {
		return
	}
	m.ReconcileRuns.WithLabelValues(outcome).Inc()
	m.ReconcileAgencies.Observe(float64(agencies))
}

func (m *Metrics) ObserveRecompute(start time.Time) {
	if m == nil {
		return
	}
	m.RecomputeDuration.Observe(time.Since(start).Seconds())
}
