// Package config provides configuration management for opgraph.
//
// This package handles loading, validating, and defaulting configuration
// from YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("opgraph.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("opgraph.yaml")
//
// LoadConfigWithEnvOverrides accepts an empty path, in which case it starts
// from Default.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention OPGRAPH_SECTION_FIELD.
// For example:
//
//   - OPGRAPH_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - OPGRAPH_EVALUATOR_MAX_DEPTH overrides evaluator.max_depth
//   - OPGRAPH_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validation collects every failing field into a single ValidationError so
// that a broken file can be fixed in one pass.
package config
