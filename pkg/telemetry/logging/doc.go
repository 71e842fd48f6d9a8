// Package logging builds the structured logger used across opgraph.
//
// New returns a *slog.Logger configured from the telemetry logging section:
//   - JSON, text and console formats
//   - masking of sensitive attributes (configured keys and built-in patterns)
//   - request_id, tree, trace_id and span_id taken from the context
//
// Usage:
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, os.Stderr))
//	if err != nil {
//	    return err
//	}
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "evaluation complete", "password", "hunter2") // password=***
//
// The same Redactor masks local values before they are written to the
// evaluation journal.
package logging
