package metrics

import (
	"time"

	"mercator-hq/opgraph/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EvaluationMetrics tracks tree evaluation.
//
// Metrics:
//   - opgraph_evaluations_total: evaluations by root tag and outcome
//   - opgraph_evaluation_duration_seconds: evaluation duration by root tag
//   - opgraph_nodes_total: node evaluations by tag and outcome
//   - opgraph_fetches_total: remote fetches by method and outcome
//   - opgraph_fetch_duration_seconds: remote fetch duration by method
type EvaluationMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	nodesTotal         *prometheus.CounterVec
	fetchesTotal       *prometheus.CounterVec
	fetchDuration      *prometheus.HistogramVec
}

// NewEvaluationMetrics creates and registers evaluation metrics with the provided registry.
func NewEvaluationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EvaluationMetrics {
	em := &EvaluationMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of tree evaluations",
			},
			[]string{"root_tag", "outcome"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of tree evaluations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"root_tag"},
		),

		nodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "nodes_total",
				Help:      "Total number of evaluated nodes",
			},
			[]string{"tag", "outcome"},
		),

		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fetches_total",
				Help:      "Total number of remote fetches",
			},
			[]string{"method", "outcome"},
		),

		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of remote fetches in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"method"},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.evaluationDuration,
		em.nodesTotal,
		em.fetchesTotal,
		em.fetchDuration,
	)

	return em
}

// RecordEvaluation records a completed evaluation.
func (em *EvaluationMetrics) RecordEvaluation(rootTag, outcome string, duration time.Duration) {
	em.evaluationsTotal.WithLabelValues(rootTag, outcome).Inc()
	em.evaluationDuration.WithLabelValues(rootTag).Observe(duration.Seconds())
}

// RecordNode records a node evaluation.
func (em *EvaluationMetrics) RecordNode(tag, outcome string) {
	em.nodesTotal.WithLabelValues(tag, outcome).Inc()
}

// RecordFetch records a remote fetch.
func (em *EvaluationMetrics) RecordFetch(method, outcome string, duration time.Duration) {
	em.fetchesTotal.WithLabelValues(method, outcome).Inc()
	em.fetchDuration.WithLabelValues(method).Observe(duration.Seconds())
}
