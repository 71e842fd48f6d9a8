package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/opgraph/pkg/config"
	"mercator-hq/opgraph/pkg/telemetry/health"
	"mercator-hq/opgraph/pkg/telemetry/logging"
	"mercator-hq/opgraph/pkg/telemetry/metrics"
	"mercator-hq/opgraph/pkg/telemetry/tracing"
)

// Telemetry bundles the process-wide observability components.
type Telemetry struct {
	Logger   *slog.Logger
	Redactor *logging.Redactor
	Metrics  *metrics.Collector
	Tracer   *tracing.Tracer
	Health   *health.Checker
}

// New builds every telemetry component from configuration. Logs are
// written to w. Metrics are always collected into a registry so that
// callers can pass Metrics to the evaluator unconditionally; the collector
// is a no-op when metrics are disabled.
func New(cfg *config.TelemetryConfig, w io.Writer, version string) (*Telemetry, error) {
	logger, err := logging.New(logging.FromConfig(cfg.Logging, w))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracer, err := tracing.New(&cfg.Tracing, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return &Telemetry{
		Logger:   logger,
		Redactor: logging.NewRedactor(cfg.Logging.RedactKeys, cfg.Logging.RedactPatterns),
		Metrics:  metrics.NewCollector(&cfg.Metrics, nil),
		Tracer:   tracer,
		Health:   health.New(0),
	}, nil
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.Tracer.Shutdown(ctx)
}
