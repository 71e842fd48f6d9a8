// Package metrics provides Prometheus metrics collection for opgraph.
//
// # Metrics Categories
//
//   - Evaluation: evaluations, node outcomes and remote fetches
//   - Library: loaded trees, reloads and named tree evaluations
//   - Journal: writes and retention pruning
//   - HTTP: requests served by the opgraph server
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	ev, err := eval.New(evalCfg, eval.WithRecorder(collector))
//	...
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// All Record methods are no-ops when metrics are disabled.
package metrics
