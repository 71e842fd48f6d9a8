package metrics

import (
	"time"

	"mercator-hq/opgraph/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// LibraryMetrics tracks the named tree library.
//
// Metrics:
//   - opgraph_library_trees: number of loaded trees
//   - opgraph_library_reloads_total: reloads by source and outcome
//   - opgraph_library_last_reload_timestamp_seconds: time of the last successful reload
//   - opgraph_tree_evaluations_total: evaluations of named trees by outcome
type LibraryMetrics struct {
	trees           prometheus.Gauge
	reloadsTotal    *prometheus.CounterVec
	lastReload      prometheus.Gauge
	treeEvaluations *prometheus.CounterVec
}

// NewLibraryMetrics creates and registers library metrics with the provided registry.
func NewLibraryMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LibraryMetrics {
	lm := &LibraryMetrics{
		trees: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "library_trees",
			Help:      "Number of trees in the library",
		}),
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "library_reloads_total",
				Help:      "Total number of library reloads",
			},
			[]string{"source", "outcome"},
		),
		lastReload: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "library_last_reload_timestamp_seconds",
			Help:      "Unix time of the last successful library reload",
		}),
		treeEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tree_evaluations_total",
				Help:      "Total number of named tree evaluations",
			},
			[]string{"tree", "outcome"},
		),
	}

	registry.MustRegister(lm.trees, lm.reloadsTotal, lm.lastReload, lm.treeEvaluations)

	return lm
}

// RecordReload records a reload attempt. The tree gauge only moves on success.
func (lm *LibraryMetrics) RecordReload(source string, ok bool, trees int) {
	if !ok {
		lm.reloadsTotal.WithLabelValues(source, "failure").Inc()
		return
	}
	lm.reloadsTotal.WithLabelValues(source, "success").Inc()
	lm.trees.Set(float64(trees))
	lm.lastReload.Set(float64(time.Now().Unix()))
}

// RecordTreeEvaluation records an evaluation of a named tree.
func (lm *LibraryMetrics) RecordTreeEvaluation(tree, outcome string) {
	lm.treeEvaluations.WithLabelValues(tree, outcome).Inc()
}
