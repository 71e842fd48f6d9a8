package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "OPGRAPH_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes a YAML document on top of Default and applies defaults to
// any field the document left empty. The result is not validated.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention OPGRAPH_SECTION_FIELD (e.g., OPGRAPH_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
// An empty path skips the file and starts from Default.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Evaluator overrides
	envInt("EVALUATOR_MAX_DEPTH", &cfg.Evaluator.MaxDepth)
	envInt("EVALUATOR_MAX_PARALLELISM", &cfg.Evaluator.MaxParallelism)
	envDuration("EVALUATOR_FETCH_TIMEOUT", &cfg.Evaluator.FetchTimeout)
	envString("EVALUATOR_ROLES_KEY", &cfg.Evaluator.RolesKey)
	envString("EVALUATOR_LOCALE", &cfg.Evaluator.Locale)
	envString("EVALUATOR_USER_AGENT", &cfg.Evaluator.UserAgent)

	// Library overrides
	envString("LIBRARY_MODE", &cfg.Library.Mode)
	envString("LIBRARY_PATH", &cfg.Library.Path)
	envBool("LIBRARY_WATCH", &cfg.Library.Watch)
	envDuration("LIBRARY_DEBOUNCE", &cfg.Library.Debounce)
	envBool("LIBRARY_STRICT", &cfg.Library.Strict)
	envString("LIBRARY_GIT_REPOSITORY", &cfg.Library.Git.Repository)
	envString("LIBRARY_GIT_BRANCH", &cfg.Library.Git.Branch)
	envString("LIBRARY_GIT_PATH", &cfg.Library.Git.Path)
	envString("LIBRARY_GIT_AUTH_TYPE", &cfg.Library.Git.Auth.Type)
	envString("LIBRARY_GIT_AUTH_TOKEN", &cfg.Library.Git.Auth.Token)
	envString("LIBRARY_GIT_AUTH_SSH_KEY_PATH", &cfg.Library.Git.Auth.SSHKeyPath)
	envDuration("LIBRARY_GIT_POLL_INTERVAL", &cfg.Library.Git.PollInterval)

	// Journal overrides
	envBool("JOURNAL_ENABLED", &cfg.Journal.Enabled)
	envString("JOURNAL_DRIVER", &cfg.Journal.Driver)
	envString("JOURNAL_PATH", &cfg.Journal.Path)
	envInt("JOURNAL_RETENTION_DAYS", &cfg.Journal.RetentionDays)
	envString("JOURNAL_PRUNE_SCHEDULE", &cfg.Journal.PruneSchedule)

	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envBool("SERVER_AUTH_ENABLED", &cfg.Server.Auth.Enabled)
	envBool("SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	envString("SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	envString("SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)
	if val := os.Getenv(EnvPrefix + "SERVER_RATE_LIMIT_REQUESTS_PER_SECOND"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Server.RateLimit.RequestsPerSecond = f
		}
	}

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_REDACT", &cfg.Telemetry.Logging.Redact)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_REDACT_KEYS"); val != "" {
		cfg.Telemetry.Logging.RedactKeys = splitList(val)
	}
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
