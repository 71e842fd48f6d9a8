// Package tracing configures OpenTelemetry distributed tracing for opgraph.
//
// New installs a global tracer provider that exports spans over OTLP gRPC
// and a W3C trace context propagator. The evaluator, remote fetches and the
// HTTP server all create spans through it; outgoing fetches carry the
// traceparent header so that a remote service can join the trace.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//	ev, _ := eval.New(evalCfg, eval.WithTracer(tracer.Tracer("mercator-hq/opgraph/eval")))
package tracing
