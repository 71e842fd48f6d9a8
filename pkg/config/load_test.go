package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opgraph.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
evaluator:
  max_depth: 32
  fetch_timeout: "2s"
  locale: "de"

library:
  path: "./testdata/trees"
  watch: true

journal:
  enabled: true
  driver: "memory"
  retention_days: 0

server:
  listen_address: "0.0.0.0:9000"
  read_timeout: "60s"

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Evaluator.MaxDepth != 32 {
		t.Errorf("expected max depth 32, got %d", cfg.Evaluator.MaxDepth)
	}
	if cfg.Evaluator.FetchTimeout != 2*time.Second {
		t.Errorf("expected fetch timeout 2s, got %v", cfg.Evaluator.FetchTimeout)
	}
	if cfg.Evaluator.MaxParallelism != DefaultMaxParallelism {
		t.Errorf("expected default parallelism, got %d", cfg.Evaluator.MaxParallelism)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout 60s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if !cfg.Library.Watch || cfg.Library.Debounce != DefaultLibraryDebounce {
		t.Errorf("unexpected library config %+v", cfg.Library)
	}
	if cfg.Journal.RetentionDays != 0 {
		t.Errorf("explicit zero retention should be kept, got %d", cfg.Journal.RetentionDays)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("explicit metrics.enabled=false should be kept")
	}
	if !cfg.Telemetry.Logging.Redact {
		t.Error("omitted redact should keep its default")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "evaluator:\n  max_depth: [1, 2\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
library:
  mode: "svn"
telemetry:
  logging:
    level: "verbose"
`)
	_, err := LoadConfig(path)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.Has("library.mode") || !verr.Has("telemetry.logging.level") {
		t.Errorf("expected both fields reported, got %v", verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  listen_address: \"127.0.0.1:7000\"\n")

	t.Setenv("OPGRAPH_SERVER_LISTEN_ADDRESS", "0.0.0.0:8000")
	t.Setenv("OPGRAPH_EVALUATOR_MAX_DEPTH", "12")
	t.Setenv("OPGRAPH_EVALUATOR_FETCH_TIMEOUT", "250ms")
	t.Setenv("OPGRAPH_LIBRARY_WATCH", "true")
	t.Setenv("OPGRAPH_TELEMETRY_LOGGING_REDACT_KEYS", "ssn, card ,")
	t.Setenv("OPGRAPH_TELEMETRY_TRACING_SAMPLE_RATIO", "0.25")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8000" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Evaluator.MaxDepth != 12 {
		t.Errorf("max depth = %d", cfg.Evaluator.MaxDepth)
	}
	if cfg.Evaluator.FetchTimeout != 250*time.Millisecond {
		t.Errorf("fetch timeout = %v", cfg.Evaluator.FetchTimeout)
	}
	if !cfg.Library.Watch {
		t.Error("watch should be enabled")
	}
	if got := strings.Join(cfg.Telemetry.Logging.RedactKeys, "|"); got != "ssn|card" {
		t.Errorf("redact keys = %q", got)
	}
	if cfg.Telemetry.Tracing.SampleRatio != 0.25 {
		t.Errorf("sample ratio = %v", cfg.Telemetry.Tracing.SampleRatio)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("OPGRAPH_LIBRARY_PATH", "/srv/trees")
	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Library.Path != "/srv/trees" {
		t.Errorf("library path = %q", cfg.Library.Path)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	t.Setenv("OPGRAPH_EVALUATOR_MAX_DEPTH", "deep")
	t.Setenv("OPGRAPH_SERVER_READ_TIMEOUT", "soon")
	t.Setenv("OPGRAPH_JOURNAL_ENABLED", "maybe")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Evaluator.MaxDepth != DefaultMaxDepth {
		t.Errorf("max depth = %d, want default", cfg.Evaluator.MaxDepth)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("read timeout = %v, want default", cfg.Server.ReadTimeout)
	}
	if cfg.Journal.Enabled {
		t.Error("journal should stay disabled")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidResult(t *testing.T) {
	t.Setenv("OPGRAPH_LIBRARY_MODE", "ftp")
	_, err := LoadConfigWithEnvOverrides("")
	if err == nil || !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("expected validation error, got %v", err)
	}
}
