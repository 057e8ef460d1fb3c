package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the review module.
// All methods are safe on a nil receiver.
type Metrics struct {
	Submitted          prometheus.Counter
	Rejected           *prometheus.CounterVec
	Moderated          *prometheus.CounterVec
	Feedback           *prometheus.CounterVec
	VersionConflicts   prometheus.Counter
	EventPublishFailed prometheus.Counter
	SubmitDuration     prometheus.Histogram
}

// New creates review metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "vouch_reviews_submitted_total",
			Help: "Total number of reviews accepted",
		}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_reviews_rejected_total",
			Help: "Review submissions rejected by reason",
		}, []string{"reason"}),
		Moderated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_reviews_moderated_total",
			Help: "Moderation actions applied by action",
		}, []string{"action"}),
		Feedback: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_review_feedback_total",
			Help: "Helpful votes and reports recorded",
		}, []string{"kind"}),
		VersionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "vouch_review_version_conflicts_total",
			Help: "Optimistic concurrency conflicts on review writes",
		}),
		EventPublishFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vouch_review_event_publish_failures_total",
			Help: "Review events that could not be published",
		}),
		SubmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_review_submit_duration_seconds",
			Help:    "Duration of review submissions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	if m == nil {
		return
	}
	m.Submitted.Inc()
}

// IncrementRejected records a rejected submission, e.g. "duplicate" or "self_review".
func (m *Metrics) IncrementRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementModerated(action string) {
	if m == nil {
		return
	}
	m.Moderated.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementFeedback(kind string) {
	if m == nil {
		return
	}
	m.Feedback.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementVersionConflict() {
	if m == nil {
		return
	}
	m.VersionConflicts.Inc()
}

func (m *Metrics) IncrementEventPublishFailed() {
	if m == nil {
		return
	}
	m.EventPublishFailed.Inc()
}

// ObserveSubmit records the duration of a Submit call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	if m == nil {
		return
	}
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
