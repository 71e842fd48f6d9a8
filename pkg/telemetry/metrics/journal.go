package metrics

import (
	"time"

	"mercator-hq/opgraph/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// JournalMetrics tracks the evaluation journal.
//
// Metrics:
//   - opgraph_journal_writes_total: journal writes by outcome
//   - opgraph_journal_write_duration_seconds: journal write duration
//   - opgraph_journal_pruned_total: records removed by retention
type JournalMetrics struct {
	writesTotal   *prometheus.CounterVec
	writeDuration prometheus.Histogram
	prunedTotal   prometheus.Counter
}

// NewJournalMetrics creates and registers journal metrics with the provided registry.
func NewJournalMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *JournalMetrics {
	jm := &JournalMetrics{
		writesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_writes_total",
				Help:      "Total number of journal writes",
			},
			[]string{"outcome"},
		),
		writeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "journal_write_duration_seconds",
			Help:      "Duration of journal writes in seconds",
			Buckets:   cfg.DurationBuckets,
		}),
		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "journal_pruned_total",
			Help:      "Total number of journal records removed by retention",
		}),
	}

	registry.MustRegister(jm.writesTotal, jm.writeDuration, jm.prunedTotal)

	return jm
}

// RecordWrite records a journal write.
func (jm *JournalMetrics) RecordWrite(ok bool, duration time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	jm.writesTotal.WithLabelValues(outcome).Inc()
	jm.writeDuration.Observe(duration.Seconds())
}

// RecordPrune records pruned records.
func (jm *JournalMetrics) RecordPrune(removed int64) {
	jm.prunedTotal.Add(float64(removed))
}
