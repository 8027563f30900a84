// Package config loads server configuration from an optional TOML file
// and environment variables. Environment variables win.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultConfigFile is the config file searched for in the working directory.
const DefaultConfigFile = "nft-assistant.toml"

// Config holds all configuration for the relay server
type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Security  SecurityConfig
	Proxy     ProxyConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// UpstreamConfig holds the NFT data provider settings
type UpstreamConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	BurstSize      int
	CleanupMinutes int
}

// SecurityConfig holds security filter settings
type SecurityConfig struct {
	FilterEnabled bool
	MaxBodySizeMB int
}

// ProxyConfig holds trusted proxy settings for X-Forwarded-For handling
type ProxyConfig struct {
	TrustProxy     bool
	TrustedProxies []string // CIDR notation
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// fileConfig mirrors the TOML layout of nft-assistant.toml. Only a subset
// of settings makes sense in a checked-in file; secrets stay in the env.
type fileConfig struct {
	Server struct {
		Port int    `toml:"port"`
		Host string `toml:"host"`
	} `toml:"server"`
	Upstream struct {
		BaseURL        string `toml:"base_url"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
	} `toml:"upstream"`
	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logging"`
}

// Load loads configuration from the optional TOML file and environment
// variables. It never fails on a missing file, only on a malformed one.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvInt("PORT", 5000),
			Host:         getEnv("HOST", "0.0.0.0"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 120),
		},
		Upstream: UpstreamConfig{
			BaseURL:        getEnv("UNLEASH_BASE_URL", "https://api.unleashnfts.com/api/v1"),
			APIKey:         getEnv("UNLEASH_API_KEY", ""),
			TimeoutSeconds: getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 30),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin: getEnvInt("RATE_LIMIT_RPM", 300),
			BurstSize:      getEnvInt("RATE_LIMIT_BURST", 50),
			CleanupMinutes: getEnvInt("RATE_LIMIT_CLEANUP_MINUTES", 10),
		},
		Security: SecurityConfig{
			FilterEnabled: getEnvBool("SECURITY_FILTER_ENABLED", true),
			MaxBodySizeMB: getEnvInt("SECURITY_MAX_BODY_SIZE_MB", 1),
		},
		Proxy: ProxyConfig{
			TrustProxy:     getEnvBool("TRUST_PROXY", false),
			TrustedProxies: getEnvStringSlice("TRUSTED_PROXIES", []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
		},
	}

	if err := applyFile(cfg, getEnv("CONFIG_FILE", DefaultConfigFile)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Upstream.APIKey == "" {
		return errors.New("UNLEASH_API_KEY is not set")
	}
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream base URL is empty")
	}
	return nil
}

// applyFile overlays file values under env values: the file only fills
// settings that have no env override.
func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if fc.Server.Port != 0 && os.Getenv("PORT") == "" {
		cfg.Server.Port = fc.Server.Port
	}
	if fc.Server.Host != "" && os.Getenv("HOST") == "" {
		cfg.Server.Host = fc.Server.Host
	}
	if fc.Upstream.BaseURL != "" && os.Getenv("UNLEASH_BASE_URL") == "" {
		cfg.Upstream.BaseURL = fc.Upstream.BaseURL
	}
	if fc.Upstream.TimeoutSeconds != 0 && os.Getenv("UPSTREAM_TIMEOUT_SECONDS") == "" {
		cfg.Upstream.TimeoutSeconds = fc.Upstream.TimeoutSeconds
	}
	if fc.Logging.Level != "" && os.Getenv("LOG_LEVEL") == "" {
		cfg.Logging.Level = fc.Logging.Level
	}
	if fc.Logging.Format != "" && os.Getenv("LOG_FORMAT") == "" {
		cfg.Logging.Format = fc.Logging.Format
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
