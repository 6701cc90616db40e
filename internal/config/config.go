// Package config loads the web server and CLI settings from the environment using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultStorageSecret seals stored credentials in development. Production must override it.
const DefaultStorageSecret = "dev-storage-secret-change-in-production"

// Config holds the web server configuration.
type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`
	// APIBaseURL is the marketplace backend every request is forwarded to.
	APIBaseURL string        `mapstructure:"API_BASE_URL"`
	APITimeout time.Duration `mapstructure:"API_TIMEOUT"`
	// DatabaseDSN selects MySQL for durable credential storage. Empty keeps it in memory.
	DatabaseDSN string `mapstructure:"DATABASE_DSN"`
	// RedisURL selects Redis for per-tab credential storage. Empty keeps it in memory.
	RedisURL     string        `mapstructure:"REDIS_URL"`
	EphemeralTTL time.Duration `mapstructure:"EPHEMERAL_TTL"`
	// StorageSecret derives the key sealing credentials at rest.
	StorageSecret  string  `mapstructure:"STORAGE_SECRET"`
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
	CookieSecure   bool    `mapstructure:"COOKIE_SECURE"`
	LogLevel       string  `mapstructure:"LOG_LEVEL"`
}

// Load builds Config from the environment. Call godotenv first to pick up a .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("API_TIMEOUT", "15s")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("EPHEMERAL_TTL", "12h")
	v.SetDefault("STORAGE_SECRET", DefaultStorageSecret)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if err := validateBaseURL("API_BASE_URL", c.APIBaseURL); err != nil {
		return err
	}
	if c.Port == "" {
		return errors.New("config: PORT must be set")
	}
	if c.APITimeout <= 0 {
		return errors.New("config: API_TIMEOUT must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("config: RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.StorageSecret == "" {
		return errors.New("config: STORAGE_SECRET must be set")
	}
	if c.IsProduction() && c.StorageSecret == DefaultStorageSecret {
		return errors.New("config: STORAGE_SECRET must be set in production environment")
	}
	return nil
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

// CLIConfig holds the jobctl settings, read from JOBCTL_-prefixed variables.
type CLIConfig struct {
	APIBaseURL    string        `mapstructure:"API_BASE_URL"`
	APITimeout    time.Duration `mapstructure:"API_TIMEOUT"`
	StateDir      string        `mapstructure:"STATE_DIR"`
	StorageSecret string        `mapstructure:"STORAGE_SECRET"`
}

// LoadCLI builds CLIConfig from the environment.
func LoadCLI() (*CLIConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBCTL")
	v.AutomaticEnv()

	v.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("API_TIMEOUT", "15s")
	v.SetDefault("STATE_DIR", defaultStateDir())
	v.SetDefault("STORAGE_SECRET", DefaultStorageSecret)

	var cfg CLIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validateBaseURL("JOBCTL_API_BASE_URL", cfg.APIBaseURL); err != nil {
		return nil, err
	}
	if cfg.StateDir == "" {
		return nil, errors.New("config: JOBCTL_STATE_DIR must be set")
	}
	return &cfg, nil
}

// CredentialsPath is the file holding remembered credentials.
func (c *CLIConfig) CredentialsPath() string {
	return filepath.Join(c.StateDir, "credentials.json")
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".jobctl"
	}
	return filepath.Join(dir, "jobctl")
}

func validateBaseURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("config: %s must be set", name)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: %s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
