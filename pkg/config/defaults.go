package config

import (
	"math"
	"time"
)

// Default values for configuration fields.
const (
	// Evaluator defaults
	DefaultMaxDepth       = 64
	DefaultMaxParallelism = 8
	DefaultFetchTimeout   = 10 * time.Second
	DefaultRolesKey       = "roles"
	DefaultLocale         = "en"
	DefaultUserAgent      = "opgraph"

	// Library defaults
	DefaultLibraryMode     = "file"
	DefaultLibraryPath     = "./trees"
	DefaultLibraryDebounce = 100 * time.Millisecond
	DefaultGitBranch       = "main"
	DefaultGitAuthType     = "none"
	DefaultGitPollInterval = 30 * time.Second
	DefaultGitTimeout      = 30 * time.Second
	DefaultGitDepth        = 1

	// Journal defaults
	DefaultJournalDriver        = "sqlite"
	DefaultJournalPath          = "data/journal.db"
	DefaultJournalMaxOpenConns  = 4
	DefaultJournalRetentionDays = 30
	DefaultJournalPruneSchedule = "0 3 * * *"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20)
	DefaultAuthHeader      = "Authorization"
	DefaultRateLimitIdle   = 10 * time.Minute
	DefaultTLSMinVersion   = "1.2"
	DefaultTLSReload       = 5 * time.Minute

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultLoggingRedact      = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "opgraph"
	DefaultTracingEnabled     = false
	DefaultTracingServiceName = "opgraph"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingInsecure    = true
	DefaultTracingTimeout     = 10 * time.Second
)

// DefaultRedactKeys are the local value and attribute names masked in logs
// when no redact_keys are configured.
var DefaultRedactKeys = []string{"password", "token", "secret", "authorization"}

// DefaultDurationBuckets are the histogram buckets for evaluation and fetch
// durations in seconds.
var DefaultDurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Default returns a configuration with every default applied, including the
// fields whose zero value is meaningful (booleans defaulting to true and
// journal retention). LoadConfig decodes files on top of it so that an
// omitted field keeps its default while an explicit zero is honored.
func Default() *Config {
	cfg := &Config{}
	cfg.Telemetry.Logging.Redact = DefaultLoggingRedact
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Enabled = DefaultTracingEnabled
	cfg.Telemetry.Tracing.Insecure = DefaultTracingInsecure
	cfg.Journal.RetentionDays = DefaultJournalRetentionDays
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Evaluator defaults
	ev := &cfg.Evaluator
	if ev.MaxDepth == 0 {
		ev.MaxDepth = DefaultMaxDepth
	}
	if ev.MaxParallelism == 0 {
		ev.MaxParallelism = DefaultMaxParallelism
	}
	if ev.FetchTimeout == 0 {
		ev.FetchTimeout = DefaultFetchTimeout
	}
	if ev.RolesKey == "" {
		ev.RolesKey = DefaultRolesKey
	}
	if ev.Locale == "" {
		ev.Locale = DefaultLocale
	}
	if ev.UserAgent == "" {
		ev.UserAgent = DefaultUserAgent
	}

	// Library defaults
	lib := &cfg.Library
	if lib.Mode == "" {
		lib.Mode = DefaultLibraryMode
	}
	if lib.Path == "" {
		lib.Path = DefaultLibraryPath
	}
	if lib.Debounce == 0 {
		lib.Debounce = DefaultLibraryDebounce
	}
	if lib.Git.Branch == "" {
		lib.Git.Branch = DefaultGitBranch
	}
	if lib.Git.Auth.Type == "" {
		lib.Git.Auth.Type = DefaultGitAuthType
	}
	if lib.Git.PollInterval == 0 {
		lib.Git.PollInterval = DefaultGitPollInterval
	}
	if lib.Git.Timeout == 0 {
		lib.Git.Timeout = DefaultGitTimeout
	}
	if lib.Git.Depth == 0 {
		lib.Git.Depth = DefaultGitDepth
	}

	// Journal defaults
	j := &cfg.Journal
	if j.Driver == "" {
		j.Driver = DefaultJournalDriver
	}
	if j.Path == "" {
		j.Path = DefaultJournalPath
	}
	if j.MaxOpenConns == 0 {
		j.MaxOpenConns = DefaultJournalMaxOpenConns
	}
	if j.PruneSchedule == "" {
		j.PruneSchedule = DefaultJournalPruneSchedule
	}

	// Server defaults
	srv := &cfg.Server
	if srv.ListenAddress == "" {
		srv.ListenAddress = DefaultListenAddress
	}
	if srv.ReadTimeout == 0 {
		srv.ReadTimeout = DefaultReadTimeout
	}
	if srv.WriteTimeout == 0 {
		srv.WriteTimeout = DefaultWriteTimeout
	}
	if srv.IdleTimeout == 0 {
		srv.IdleTimeout = DefaultIdleTimeout
	}
	if srv.ShutdownTimeout == 0 {
		srv.ShutdownTimeout = DefaultShutdownTimeout
	}
	if srv.MaxBodyBytes == 0 {
		srv.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if srv.Auth.Header == "" {
		srv.Auth.Header = DefaultAuthHeader
	}
	if srv.RateLimit.RequestsPerSecond > 0 && srv.RateLimit.Burst == 0 {
		srv.RateLimit.Burst = int(math.Ceil(srv.RateLimit.RequestsPerSecond))
	}
	if srv.RateLimit.IdleTimeout == 0 {
		srv.RateLimit.IdleTimeout = DefaultRateLimitIdle
	}
	if srv.TLS.MinVersion == "" {
		srv.TLS.MinVersion = DefaultTLSMinVersion
	}
	if srv.TLS.ReloadInterval == 0 {
		srv.TLS.ReloadInterval = DefaultTLSReload
	}

	// Telemetry defaults
	tel := &cfg.Telemetry
	if tel.Logging.Level == "" {
		tel.Logging.Level = DefaultLoggingLevel
	}
	if tel.Logging.Format == "" {
		tel.Logging.Format = DefaultLoggingFormat
	}
	if tel.Logging.RedactKeys == nil {
		tel.Logging.RedactKeys = append([]string(nil), DefaultRedactKeys...)
	}
	if tel.Metrics.Path == "" {
		tel.Metrics.Path = DefaultMetricsPath
	}
	if tel.Metrics.Namespace == "" {
		tel.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(tel.Metrics.DurationBuckets) == 0 {
		tel.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if tel.Tracing.ServiceName == "" {
		tel.Tracing.ServiceName = DefaultTracingServiceName
	}
	if tel.Tracing.SampleRatio == 0 {
		tel.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if tel.Tracing.Timeout == 0 {
		tel.Tracing.Timeout = DefaultTracingTimeout
	}
}
