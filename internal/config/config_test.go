package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var webVars = []string{
	"PORT", "ENV", "API_BASE_URL", "API_TIMEOUT", "DATABASE_DSN", "REDIS_URL", "EPHEMERAL_TTL",
	"STORAGE_SECRET", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "COOKIE_SECURE", "LOG_LEVEL",
}

// clearEnv blanks the variables Load reads. Viper ignores empty variables.
func clearEnv(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, webVars...)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "http://localhost:5000/api", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, 12*time.Hour, cfg.EphemeralTTL)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, DefaultStorageSecret, cfg.StorageSecret)
	assert.InDelta(t, 5.0, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_EnvOverride(t *testing.T) {
	clearEnv(t, webVars...)
	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE_URL", "https://api.example.com/api")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://api.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.001)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_ProductionNeedsStorageSecret(t *testing.T) {
	clearEnv(t, webVars...)
	t.Setenv("ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_SECRET")

	t.Setenv("STORAGE_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:           "8080",
			APIBaseURL:     "http://localhost:5000/api",
			APITimeout:     time.Second,
			StorageSecret:  "s",
			RateLimitRPS:   1,
			RateLimitBurst: 1,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty base", mutate: func(c *Config) { c.APIBaseURL = "" }, want: "API_BASE_URL"},
		{name: "relative base", mutate: func(c *Config) { c.APIBaseURL = "/api" }, want: "API_BASE_URL"},
		{name: "bad scheme", mutate: func(c *Config) { c.APIBaseURL = "ftp://x/api" }, want: "API_BASE_URL"},
		{name: "no timeout", mutate: func(c *Config) { c.APITimeout = 0 }, want: "API_TIMEOUT"},
		{name: "no rate", mutate: func(c *Config) { c.RateLimitRPS = 0 }, want: "RATE_LIMIT"},
		{name: "no secret", mutate: func(c *Config) { c.StorageSecret = "" }, want: "STORAGE_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCLI(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JOBCTL_API_BASE_URL", "https://jobs.example.com/api")
	t.Setenv("JOBCTL_API_TIMEOUT", "")
	t.Setenv("JOBCTL_STATE_DIR", dir)
	t.Setenv("JOBCTL_STORAGE_SECRET", "cli-secret")

	cfg, err := LoadCLI()
	require.NoError(t, err)

	assert.Equal(t, "https://jobs.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, "cli-secret", cfg.StorageSecret)
	assert.Equal(t, filepath.Join(dir, "credentials.json"), cfg.CredentialsPath())
}

func TestLoadCLI_RejectsBadBaseURL(t *testing.T) {
	t.Setenv("JOBCTL_API_BASE_URL", "localhost:5000")
	t.Setenv("JOBCTL_STATE_DIR", t.TempDir())

	_, err := LoadCLI()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOBCTL_API_BASE_URL")
}
