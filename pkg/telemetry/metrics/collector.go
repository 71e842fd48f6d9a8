package metrics

import (
	"sync"
	"time"

	"mercator-hq/opgraph/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OtherLabel replaces label values once a cardinality limit is reached.
const OtherLabel = "other"

// Collector is the orchestrator for all Prometheus metrics in opgraph.
// It manages metric registration and provides a single interface for
// recording metrics across the evaluator, the tree library, the journal and
// the HTTP server.
//
// Collector implements eval.Recorder.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	evaluationMetrics *EvaluationMetrics
	libraryMetrics    *LibraryMetrics
	journalMetrics    *JournalMetrics
	httpMetrics       *HTTPMetrics

	// Tree names come from callers, so they are capped.
	trees *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is used.
//
// Example:
//
//	cfg := config.Default().Telemetry.Metrics
//	collector := metrics.NewCollector(&cfg, nil)
//	ev, _ := eval.New(eval.DefaultConfig(), eval.WithRecorder(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultDurationBuckets
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
		trees:    NewCardinalityLimiter(1000),
	}

	c.evaluationMetrics = NewEvaluationMetrics(cfg, registry)
	c.libraryMetrics = NewLibraryMetrics(cfg, registry)
	c.journalMetrics = NewJournalMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)

	return c
}

// RecordEvaluation records a completed tree evaluation.
//
// Parameters:
//   - rootTag: tag of the tree root (e.g., "And", "IsAfter")
//   - outcome: "success" or "failure"
//   - duration: total evaluation duration
func (c *Collector) RecordEvaluation(rootTag, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.evaluationMetrics.RecordEvaluation(rootTag, outcome, duration)
}

// RecordNode records the outcome of a single node evaluation.
func (c *Collector) RecordNode(tag, outcome string) {
	if !c.config.Enabled {
		return
	}

	c.evaluationMetrics.RecordNode(tag, outcome)
}

// RecordFetch records a remote fetch issued by a FromAPI node.
func (c *Collector) RecordFetch(method, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.evaluationMetrics.RecordFetch(method, outcome, duration)
}

// RecordTreeEvaluation records an evaluation of a named library tree.
// Tree names beyond the cardinality limit are aggregated as "other".
func (c *Collector) RecordTreeEvaluation(tree, outcome string) {
	if !c.config.Enabled {
		return
	}

	if !c.trees.Allow(tree) {
		tree = OtherLabel
	}
	c.libraryMetrics.RecordTreeEvaluation(tree, outcome)
}

// RecordReload records a library reload attempt and the resulting tree count.
func (c *Collector) RecordReload(source string, ok bool, trees int) {
	if !c.config.Enabled {
		return
	}

	c.libraryMetrics.RecordReload(source, ok, trees)
}

// RecordJournalWrite records a journal write.
func (c *Collector) RecordJournalWrite(ok bool, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.journalMetrics.RecordWrite(ok, duration)
}

// RecordJournalPrune records the number of records removed by retention.
func (c *Collector) RecordJournalPrune(removed int64) {
	if !c.config.Enabled {
		return
	}

	c.journalMetrics.RecordPrune(removed)
}

// RecordHTTPRequest records a served HTTP request.
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.httpMetrics.RecordRequest(route, method, status, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label value is allowed. Returns true if the value
// already exists or if the limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(label string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[label]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[label]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[label] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
