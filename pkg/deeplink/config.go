package deeplink

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/BrandonKowalski/deeplink/pkg/deeplink/constants"
	"github.com/BrandonKowalski/deeplink/pkg/deeplink/internal"
)

// Config is the TOML-backed navigator configuration.
//
//	log_level = "debug"
//	log_path  = "/var/log/app/deeplink.log"
//
//	[retry]
//	max_attempts       = 5
//	give_up_on_blocked = true
type Config struct {
	LogLevel string      `toml:"log_level"`
	LogPath  string      `toml:"log_path"`
	Retry    RetryConfig `toml:"retry"`
}

// RetryConfig mirrors RetryPolicy in the config file.
type RetryConfig struct {
	MaxAttempts     int  `toml:"max_attempts"`
	GiveUpOnBlocked bool `toml:"give_up_on_blocked"`
}

// DefaultConfig retries deferred routes forever, blocked ones included.
func DefaultConfig() Config {
	return Config{LogLevel: constants.DefaultLogLevel}
}

// LoadConfig reads a TOML file over DefaultConfig and applies environment
// overrides. An empty path yields the defaults plus overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("deeplink: load config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("deeplink: load config %s: unknown keys %v", path, undecoded)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// ParseConfig decodes TOML from data over DefaultConfig. Environment
// overrides are not applied.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("deeplink: parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(constants.LogLevelEnvVar); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(constants.LogPathEnvVar); v != "" {
		c.LogPath = v
	}
	if constants.IsDevMode() {
		c.LogLevel = "debug"
	}
}

// Validate rejects settings the navigator cannot honour.
func (c Config) Validate() error {
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("deeplink: retry.max_attempts must be >= 0, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// RetryPolicy converts the retry section.
func (c Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     c.Retry.MaxAttempts,
		GiveUpOnBlocked: c.Retry.GiveUpOnBlocked,
	}
}

// Apply configures the package logger. Call once at startup, before the
// first Navigator is created.
func (c Config) Apply() {
	if c.LogPath != "" {
		internal.SetLogPath(c.LogPath)
	}
	internal.SetRawLogLevel(c.LogLevel)
}

// Options converts the config into Navigator options.
func (c Config) Options() []Option {
	return []Option{WithRetryPolicy(c.RetryPolicy())}
}

// Logger returns the package logger used when WithLogger is not given.
func Logger() *slog.Logger {
	return internal.GetLogger()
}

// CloseLogger flushes and closes the log file, if any.
func CloseLogger() {
	internal.CloseLogger()
}
