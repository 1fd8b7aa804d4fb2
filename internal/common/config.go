// Package common provides shared utilities for Nestegg
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Nestegg
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Session     SessionConfig `toml:"session"`
	Clients     ClientsConfig `toml:"clients"`
	News        NewsConfig    `toml:"news"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SessionConfig controls wizard session lifetime.
type SessionConfig struct {
	CookieName    string `toml:"cookie_name"`
	TTL           string `toml:"ttl"`            // idle lifetime, e.g. "2h"
	SweepSchedule string `toml:"sweep_schedule"` // cron spec for the idle sweeper
}

// GetTTL parses and returns the idle session lifetime
func (c *SessionConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo        ProviderConfig `toml:"yahoo"`
	AlphaVantage ProviderConfig `toml:"alphavantage"`
	Finnhub      ProviderConfig `toml:"finnhub"`
	RSS          ProviderConfig `toml:"rss"`
}

// ProviderConfig holds the settings shared by every outbound data provider
type ProviderConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"` // requests per minute, 0 disables limiting
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return DefaultRequestTimeout
	}
	return d
}

// NewsConfig holds news gateway defaults
type NewsConfig struct {
	Limit       int      `toml:"limit"`        // entries per feed / per provider
	FinnhubDays int      `toml:"finnhub_days"` // company-news lookback window
	Feeds       []string `toml:"feeds"`        // overrides the built-in RSS feed list when set
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// DefaultRequestTimeout is applied to every outbound provider request.
const DefaultRequestTimeout = 20 * time.Second

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Session: SessionConfig{
			CookieName:    "nestegg_session",
			TTL:           "2h",
			SweepSchedule: "@every 5m",
		},
		Clients: ClientsConfig{
			Yahoo: ProviderConfig{
				BaseURL: "https://query1.finance.yahoo.com",
				Timeout: "20s",
			},
			AlphaVantage: ProviderConfig{
				BaseURL:   "https://www.alphavantage.co",
				RateLimit: 5,
				Timeout:   "20s",
			},
			Finnhub: ProviderConfig{
				BaseURL:   "https://finnhub.io/api/v1",
				RateLimit: 60,
				Timeout:   "20s",
			},
			RSS: ProviderConfig{
				Timeout: "20s",
			},
		},
		News: NewsConfig{
			Limit:       25,
			FinnhubDays: 14,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first so provider keys
// can live outside the TOML file.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NESTEGG_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("NESTEGG_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("NESTEGG_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("NESTEGG_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if ttl := os.Getenv("NESTEGG_SESSION_TTL"); ttl != "" {
		config.Session.TTL = ttl
	}

	// Provider credentials use the names the providers document
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		config.Clients.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		config.Clients.Finnhub.APIKey = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
