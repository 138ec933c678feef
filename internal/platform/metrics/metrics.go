package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	StepTransitions   *prometheus.CounterVec
	EventsEmitted     *prometheus.CounterVec
	CapturesRejected  prometheus.Counter
	SubmitsByOutcome  *prometheus.CounterVec
	SessionsCreated   prometheus.Counter
	UploadBytes       prometheus.Histogram
}

// New creates and registers all Prometheus metrics on a dedicated registry.
// A fresh registry per instance keeps tests from tripping duplicate
// registration panics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		StepTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veriflow_step_transitions_total",
			Help: "Verification flow step transitions by target step",
		}, []string{"step"}),
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veriflow_embed_events_total",
			Help: "Protocol events emitted from the embedded flow by event type",
		}, []string{"event"}),
		CapturesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "veriflow_captures_rejected_total",
			Help: "Capture artifacts rejected before upload (size or type)",
		}),
		SubmitsByOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veriflow_submits_total",
			Help: "Backend submit calls by outcome (passed, failed, retry_limit, error)",
		}, []string{"outcome"}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "veriflow_sessions_created_total",
			Help: "Verification sessions created",
		}),
		UploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "veriflow_upload_bytes",
			Help:    "Size distribution of uploaded capture artifacts",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 8),
		}),
	}
}
