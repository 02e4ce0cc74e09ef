// Package config provides configuration parsing for the ITC service.
//
// It handles both command-line flags and environment variables, with flags
// taking precedence over environment variables. The Config struct contains
// all runtime configuration:
//   - HTTP listen address
//   - Legacy calculator sidecar URL and call timeout
//   - Cache storage backend (memory or redis) and Redis connection settings
//   - Data-version poll interval
//   - Logging configuration (level, format)
//   - TLS configuration (cert, key, CA files)
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
//
// Configuration is parsed once at startup and immutable afterwards.
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/cquiroz/lucuma-itc/pkg/tls"
)

// Config holds all service configuration.
type Config struct {
	Listen    string
	LogFormat string
	LogLevel  string

	ItcURL        string
	LegacyTimeout time.Duration
	QueueDepth    int

	Storage       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	VersionPoll time.Duration

	TLS tls.Config
}

// ParseFlags parses command-line flags and environment variables into a
// Config. Environment variables are used as fallbacks when flags are not
// provided.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":6060"), "HTTP listen address")

	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.StringVar(&cfg.ItcURL, "itc-url", getEnv("ITC_URL", ""), "Legacy calculator sidecar URL (required)")
	flag.DurationVar(&cfg.LegacyTimeout, "itc-timeout", getEnvDuration("ITC_TIMEOUT", 2*time.Minute), "Legacy calculator call timeout")
	flag.IntVar(&cfg.QueueDepth, "itc-queue-depth", getEnvInt("ITC_QUEUE_DEPTH", 32), "Calculator worker queue depth")

	flag.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Cache backend: memory or redis")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")

	flag.DurationVar(&cfg.VersionPoll, "version-poll", getEnvDuration("VERSION_POLL", 5*time.Minute), "Upstream data-version poll interval")

	flag.BoolVar(&cfg.TLS.Enabled, "tls-enabled", getEnvBool("TLS_ENABLED", false), "Enable TLS for HTTP server")
	flag.StringVar(&cfg.TLS.CertFile, "tls-cert-file", getEnv("TLS_CERT_FILE", ""), "TLS certificate file")
	flag.StringVar(&cfg.TLS.KeyFile, "tls-key-file", getEnv("TLS_KEY_FILE", ""), "TLS private key file")
	flag.StringVar(&cfg.TLS.CAFile, "tls-ca-file", getEnv("TLS_CA_FILE", ""), "TLS CA certificate file for client verification")

	flag.Parse()
	return cfg
}

// Validate checks the configuration for startup misconfiguration.
func (c *Config) Validate() error {
	if c.ItcURL == "" {
		return fmt.Errorf("--itc-url is required")
	}
	if u, err := url.Parse(c.ItcURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("--itc-url %q is not an absolute URL", c.ItcURL)
	}

	if c.Storage != "memory" && c.Storage != "redis" {
		return fmt.Errorf("--storage must be memory or redis, got %q", c.Storage)
	}
	if c.Storage == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("--redis-addr is required with redis storage")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("--redis-db must be >= 0")
	}

	if c.LegacyTimeout <= 0 {
		return fmt.Errorf("--itc-timeout must be positive")
	}
	if c.VersionPoll <= 0 {
		return fmt.Errorf("--version-poll must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("--log-level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("--log-format must be text or json, got %q", c.LogFormat)
	}

	return c.TLS.Validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
