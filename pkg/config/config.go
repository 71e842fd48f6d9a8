package config

import "time"

// Config is the root configuration structure for opgraph.
// It contains all configuration sections for the evaluator, the tree
// library, the evaluation journal, the HTTP server and telemetry.
type Config struct {
	// Evaluator contains evaluation limits and collaborator settings.
	Evaluator EvaluatorConfig `yaml:"evaluator"`

	// Library contains configuration for the named tree library including
	// its source location and watch mode.
	Library LibraryConfig `yaml:"library"`

	// Journal contains configuration for the evaluation audit trail
	// including storage driver and retention.
	Journal JournalConfig `yaml:"journal"`

	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EvaluatorConfig contains configuration for the tree evaluator.
type EvaluatorConfig struct {
	// MaxDepth is the deepest node the evaluator visits.
	// Default: 64
	MaxDepth int `yaml:"max_depth"`

	// MaxParallelism bounds concurrent sibling evaluation under one node.
	// Default: 8
	MaxParallelism int `yaml:"max_parallelism"`

	// FetchTimeout bounds a single FromAPI fetch.
	// Default: 10s
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// RolesKey is the local value holding the principal's roles.
	// Default: "roles"
	RolesKey string `yaml:"roles_key"`

	// Locale selects the collation of alphabetical comparators.
	// Default: "en"
	Locale string `yaml:"locale"`

	// UserAgent is sent with remote fetches.
	// Default: "opgraph/<version>"
	UserAgent string `yaml:"user_agent"`
}

// LibraryConfig contains configuration for the tree library.
type LibraryConfig struct {
	// Mode specifies where trees are loaded from.
	// Options: "file" (local directory), "git" (Git repository)
	// Default: "file"
	Mode string `yaml:"mode"`

	// Path is the directory holding tree documents when Mode is "file".
	// Default: "./trees"
	Path string `yaml:"path"`

	// Watch enables automatic reloading when tree files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period after a file event before reloading.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`

	// Strict rejects the whole library when any tree fails validation.
	// When false, invalid trees are skipped and logged.
	// Default: false
	Strict bool `yaml:"strict"`

	// Git contains Git repository configuration.
	// Used when Mode is "git".
	Git GitConfig `yaml:"git"`
}

// GitConfig configures Git-based tree loading.
type GitConfig struct {
	// Repository URL (HTTPS or SSH).
	// Example: "https://github.com/company/trees.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path within repository to tree documents.
	// Default: "" (root directory)
	Path string `yaml:"path"`

	// Auth configures Git authentication.
	Auth GitAuthConfig `yaml:"auth"`

	// PollInterval between fetches. Zero disables polling.
	// Default: 30s
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout for Git operations.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// LocalPath where the repository is cloned.
	// Default: system temp directory
	LocalPath string `yaml:"local_path"`

	// Depth for shallow clones (0 = full clone).
	// Default: 1
	Depth int `yaml:"depth"`
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type: "token", "ssh", "none"
	// Default: "none"
	Type string `yaml:"type"`

	// Token for HTTPS authentication.
	// Required when Type is "token".
	Token string `yaml:"token"`

	// SSHKeyPath for SSH authentication.
	// Required when Type is "ssh".
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase for encrypted SSH keys.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// JournalConfig contains configuration for the evaluation journal.
type JournalConfig struct {
	// Enabled controls whether evaluations are journaled.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Driver selects the storage backend.
	// Options: "memory", "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file for the sqlite drivers.
	// Default: "data/journal.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// RetentionDays is the number of days to keep records.
	// 0 keeps records forever.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for retention pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must cover the slowest remote fetch of a tree.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits the size of request bodies.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Auth contains API key authentication for the /v1 routes.
	Auth AuthConfig `yaml:"auth"`

	// RateLimit contains per-client request rate limits for the /v1 routes.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// TLS contains HTTPS configuration.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig contains API key authentication configuration.
type AuthConfig struct {
	// Enabled controls whether /v1 requests must present an API key.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Header is the request header carrying the key. A "Bearer " prefix
	// is accepted when the header is Authorization.
	// Default: "Authorization"
	Header string `yaml:"header"`

	// Keys are the accepted API keys.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeyConfig describes one accepted API key.
type APIKeyConfig struct {
	// Name identifies the client in logs and rate limits.
	Name string `yaml:"name"`

	// Key is the secret value. A value of the form "env:NAME" is read from
	// the environment variable NAME.
	Key string `yaml:"key"`

	// Disabled rejects the key without removing it.
	Disabled bool `yaml:"disabled"`
}

// RateLimitConfig contains token bucket rate limits applied per client.
// Clients are identified by API key name, or by remote IP without auth.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. 0 disables rate limiting.
	// Default: 0
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the bucket capacity.
	// Default: requests_per_second rounded up, at least 1
	Burst int `yaml:"burst"`

	// IdleTimeout evicts the bucket of a client idle for this long.
	// Default: 10m
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// TLSConfig contains HTTPS configuration.
type TLSConfig struct {
	// Enabled serves HTTPS instead of HTTP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version ("1.2" or "1.3").
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the certificate files are checked for
	// changes.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact enables masking of sensitive values in log attributes.
	// Default: true
	Redact bool `yaml:"redact"`

	// RedactKeys lists attribute and local value names whose values are
	// always masked, e.g. "password".
	// Default: ["password", "token", "secret", "authorization"]
	RedactKeys []string `yaml:"redact_keys"`

	// RedactPatterns contains custom redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "opgraph"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: ""
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for evaluation and fetch
	// durations (seconds).
	// Default: [0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "opgraph"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
