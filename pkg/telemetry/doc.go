// Package telemetry wires the observability stack of opgraph: structured
// logging, Prometheus metrics, OpenTelemetry tracing and health probes.
//
// # Components
//
//   - logging: slog logger with redaction of sensitive values
//   - metrics: Prometheus collector, also the evaluator's Recorder
//   - tracing: OTLP gRPC tracer provider and W3C propagation
//   - health: liveness and readiness probes
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, os.Stderr, version)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ev, err := eval.New(evalCfg,
//	    eval.WithLogger(tel.Logger),
//	    eval.WithRecorder(tel.Metrics),
//	    eval.WithTracer(tel.Tracer.Tracer("mercator-hq/opgraph/eval")),
//	)
package telemetry
