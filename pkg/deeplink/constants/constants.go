// Package constants defines shared constants and environment configuration
// used throughout the deeplink packages.
package constants

import "os"

// Development is the environment variable value for development mode.
const Development = "DEV"

// EnvironmentEnvVar selects the runtime environment (ENVIRONMENT=DEV enables debug logging).
const EnvironmentEnvVar = "ENVIRONMENT"

// LogLevelEnvVar overrides the configured log level ("debug", "info", "warn", "error").
const LogLevelEnvVar = "DEEPLINK_LOG_LEVEL"

// LogPathEnvVar overrides the configured log file path.
const LogPathEnvVar = "DEEPLINK_LOG_PATH"

// ConfigPathEnvVar points the CLI at a configuration file when --config is not given.
const ConfigPathEnvVar = "DEEPLINK_CONFIG"

// LangEnvVar selects the CLI output language when --lang is not given.
const LangEnvVar = "LANG"

// Separator splits a deep-link string into segments.
const Separator = "/"

// ParamPrefix marks a route pattern segment that matches any value (":id").
const ParamPrefix = ":"

// DefaultLogLevel is used when neither config nor environment set a level.
const DefaultLogLevel = "info"

// IsDevMode returns true if running in development mode (ENVIRONMENT=DEV).
func IsDevMode() bool {
	return os.Getenv(EnvironmentEnvVar) == Development
}
