package eval

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Config contains configuration for the Evaluator.
type Config struct {
	// MaxDepth is the deepest node the evaluator will visit. Deeper
	// subtrees evaluate to a Structural error.
	// Default: 64.
	MaxDepth int

	// MaxParallelism bounds the number of sibling operands evaluated
	// concurrently under one parent. 1 evaluates siblings sequentially.
	// Default: 8.
	MaxParallelism int

	// FetchTimeout bounds a single FromAPI fetch. Zero means no limit
	// beyond the caller's context.
	// Default: 10s.
	FetchTimeout time.Duration

	// RolesKey is the local value holding the current principal's roles,
	// read by HasRole, HasAnyRole and HasAllRoles.
	// Default: "roles".
	RolesKey string

	// Locale selects the collation used by alphabetical comparators.
	// Default: "en".
	Locale string
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxDepth:       64,
		MaxParallelism: 8,
		FetchTimeout:   10 * time.Second,
		RolesKey:       "roles",
		Locale:         "en",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: max depth must be positive", ErrInvalidConfig)
	}
	if c.MaxParallelism <= 0 {
		return fmt.Errorf("%w: max parallelism must be positive", ErrInvalidConfig)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("%w: fetch timeout cannot be negative", ErrInvalidConfig)
	}
	if c.RolesKey == "" {
		return fmt.Errorf("%w: roles key is required", ErrInvalidConfig)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("%w: invalid locale %q: %v", ErrInvalidConfig, c.Locale, err)
	}
	return nil
}

// WithMaxDepth sets the maximum evaluation depth.
func (c *Config) WithMaxDepth(depth int) *Config {
	c.MaxDepth = depth
	return c
}

// WithMaxParallelism sets the sibling concurrency bound.
func (c *Config) WithMaxParallelism(n int) *Config {
	c.MaxParallelism = n
	return c
}

// WithFetchTimeout sets the per-fetch timeout.
func (c *Config) WithFetchTimeout(timeout time.Duration) *Config {
	c.FetchTimeout = timeout
	return c
}

// WithRolesKey sets the local value key holding principal roles.
func (c *Config) WithRolesKey(key string) *Config {
	c.RolesKey = key
	return c
}

// WithLocale sets the collation locale.
func (c *Config) WithLocale(locale string) *Config {
	c.Locale = locale
	return c
}
