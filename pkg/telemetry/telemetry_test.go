package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"mercator-hq/opgraph/pkg/config"
)

func TestNew(t *testing.T) {
	cfg := config.Default().Telemetry
	var buf bytes.Buffer

	tel, err := New(&cfg, &buf, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tel.Shutdown(context.Background())

	tel.Logger.Info("started", "token", "abc")
	if !strings.Contains(buf.String(), `"token":"***"`) {
		t.Errorf("log output = %q", buf.String())
	}
	if tel.Tracer.Enabled() {
		t.Error("tracing should be disabled by default")
	}
	tel.Metrics.RecordEvaluation("And", "success", time.Millisecond)
	if got := tel.Redactor.RedactLocals(map[string]any{"password": "x"})["password"]; got != "***" {
		t.Errorf("redacted = %v", got)
	}
	if tel.Health.Readiness(context.Background()).Status != "ready" {
		t.Error("expected ready with no checks")
	}
}

func TestNew_BadLogLevel(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.Logging.Level = "loud"
	if _, err := New(&cfg, nil, "test"); err == nil {
		t.Error("expected error")
	}
}
