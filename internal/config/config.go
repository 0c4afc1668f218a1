package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// ErrMissingAPIKey is returned when no credential source yields a key.
// This is a fatal startup condition, never a per-request one.
var ErrMissingAPIKey = errors.New("API key is required: set WAZUHGATE_API_KEY or WAZUHGATE_API_KEY_FILE")

// Config holds runtime configuration for the gateway.
// Values come from WAZUHGATE_-prefixed environment variables layered over
// the defaults below.
type Config struct {
	// HTTP server
	ServerPort   string `koanf:"server_port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout" validate:"gt=0"`  // seconds
	WriteTimeout int    `koanf:"write_timeout" validate:"gt=0"` // seconds
	IdleTimeout  int    `koanf:"idle_timeout" validate:"gt=0"`  // seconds

	// Request defense
	RequestTimeout       int   `koanf:"request_timeout" validate:"gt=0"`        // seconds, hard ceiling
	SlowRequestThreshold int   `koanf:"slow_request_threshold" validate:"gt=0"` // seconds, warning only
	MaxBodySingle        int64 `koanf:"max_body_single" validate:"gt=0"`        // bytes, /ingest
	MaxBodyBatch         int64 `koanf:"max_body_batch" validate:"gt=0"`         // bytes, /batch and others
	RateLimitPerMinute   int   `koanf:"rate_limit_per_minute" validate:"gt=0"`  // per client address

	// Downstream agent
	SocketPath     string `koanf:"socket_path" validate:"required"`
	DefaultDecoder string `koanf:"default_decoder" validate:"required"`

	// Credential source, resolved by ResolveAPIKey
	APIKey     string `koanf:"api_key"`
	APIKeyFile string `koanf:"api_key_file"`

	LogLevel string `koanf:"log_level"`
}

// Default returns the gateway defaults for local dev.
func Default() *Config {
	return &Config{
		ServerPort:           "8080",
		ReadTimeout:          15,
		WriteTimeout:         60,
		IdleTimeout:          120,
		RequestTimeout:       30,
		SlowRequestThreshold: 5,
		MaxBodySingle:        1 << 20,  // 1 MiB
		MaxBodyBatch:         10 << 20, // 10 MiB
		RateLimitPerMinute:   100,
		SocketPath:           "/var/ossec/queue/sockets/queue",
		DefaultDecoder:       "Wazuh-AWS",
		LogLevel:             "info",
	}
}

// Load layers WAZUHGATE_ environment variables over the defaults and
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider("WAZUHGATE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "WAZUHGATE_"))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ResolveAPIKey resolves the shared-secret credential from the layered
// source: an explicit secret file first, then the environment value.
// Absence prevents the service from starting.
func (c *Config) ResolveAPIKey() (string, error) {
	if c.APIKeyFile != "" {
		data, err := os.ReadFile(c.APIKeyFile)
		if err != nil {
			return "", fmt.Errorf("read API key file: %w", err)
		}
		key := strings.TrimSpace(string(data))
		if key == "" {
			return "", ErrMissingAPIKey
		}
		return key, nil
	}
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	return "", ErrMissingAPIKey
}
