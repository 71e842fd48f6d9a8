package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"mercator-hq/opgraph/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}},
		{name: "debug text", cfg: Config{Level: "debug", Format: "text"}},
		{name: "upper case", cfg: Config{Level: "WARN", Format: "CONSOLE"}},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn should be written, got %q", buf.String())
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{
		Redact:     true,
		RedactKeys: []string{"password", "ssn"},
		RedactPatterns: []config.RedactPattern{
			{Name: "ticket", Pattern: `TKT-\d+`, Replacement: "TKT-***"},
		},
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("fetch",
		"db_password", "hunter2",
		"header", "Bearer abc.def",
		"note", "see TKT-42",
		"locals", map[string]any{"ssn": "123", "name": "ada"},
		"count", 3,
	)

	entry := decodeLine(t, &buf)
	if entry["db_password"] != Masked {
		t.Errorf("db_password = %v", entry["db_password"])
	}
	if entry["header"] != "Bearer ***" {
		t.Errorf("header = %v", entry["header"])
	}
	if entry["note"] != "see TKT-***" {
		t.Errorf("note = %v", entry["note"])
	}
	locals := entry["locals"].(map[string]any)
	if locals["ssn"] != Masked || locals["name"] != "ada" {
		t.Errorf("locals = %v", locals)
	}
	if entry["count"] != 3.0 {
		t.Errorf("count = %v", entry["count"])
	}
}

func TestLogger_NoRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{RedactKeys: []string{"password"}, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("x", "password", "hunter2")
	if entry := decodeLine(t, &buf); entry["password"] != "hunter2" {
		t.Errorf("password = %v", entry["password"])
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithTree(WithRequestID(context.Background(), "req-1"), "discount")
	logger.With("component", "server").InfoContext(ctx, "evaluated")

	entry := decodeLine(t, &buf)
	if entry["request_id"] != "req-1" || entry["tree"] != "discount" || entry["component"] != "server" {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["trace_id"]; ok {
		t.Error("trace_id should be absent without a span")
	}
}

func TestLogger_Formats(t *testing.T) {
	for _, format := range []string{"text", "console"} {
		var buf bytes.Buffer
		logger, err := New(Config{Format: format, Writer: &buf})
		if err != nil {
			t.Fatalf("New(%s) error = %v", format, err)
		}
		logger.Info("hello", "k", "v")
		if !strings.Contains(buf.String(), "k=v") {
			t.Errorf("%s output = %q", format, buf.String())
		}
	}
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default().Telemetry.Logging
	logger, err := New(FromConfig(cfg, &buf))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Log(context.Background(), slog.LevelInfo, "x", "token", "abc")
	if entry := decodeLine(t, &buf); entry["token"] != Masked {
		t.Errorf("token = %v", entry["token"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLevel(%q) = %v, %v", in, got, err)
		}
	}
}
