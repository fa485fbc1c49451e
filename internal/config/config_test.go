package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio.dev/chat-assistant/internal/config"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HISTORY_WINDOW", "3")
	t.Setenv("CARD_DELAY", "0s")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "test.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BREAKER_ENABLED", "false")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, "9090", cfg.Server.HTTPPort)
	assert.Equal(t, 3, cfg.Chat.HistoryWindow)
	assert.Equal(t, time.Duration(0), cfg.Chat.CardDelay)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "test.db", cfg.Store.DatabaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Breaker.Enabled)

	// Untouched settings keep their defaults.
	assert.Equal(t, int32(1000), cfg.Gemini.MaxOutputTokens)
	assert.InDelta(t, 0.7, cfg.Gemini.Temperature, 0.0001)
}

func TestLoadConfigMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := config.LoadConfig("")
	require.Error(t, err)
	assert.True(t, config.IsMissingAPIKey(err))

	// The configuration is still usable.
	require.NotNil(t, cfg)
	assert.Equal(t, 5, cfg.Chat.HistoryWindow)
}

func TestLoadConfigFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
log_level = "DEBUG"

[gemini]
api_key = "file-key"
model = "gemini-test"
temperature = 0.2

[chat]
history_window = 2
card_delay = "250ms"

[rate_limit]
requests_per_second = 4.0
burst = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "env-key", cfg.Gemini.APIKey, "environment overrides the file")
	assert.Equal(t, "gemini-test", cfg.Gemini.Model)
	assert.InDelta(t, 0.2, cfg.Gemini.Temperature, 0.0001)
	assert.Equal(t, 2, cfg.Chat.HistoryWindow)
	assert.Equal(t, 250*time.Millisecond, cfg.Chat.CardDelay)
	assert.InDelta(t, 4.0, cfg.RateLimit.RequestsPerSecond, 0.0001)
	assert.Equal(t, 8, cfg.RateLimit.Burst)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantKey string
	}{
		{name: "defaults are valid", mutate: func(c *config.Config) {}},
		{name: "unknown store driver", mutate: func(c *config.Config) { c.Store.Driver = "postgres" }, wantKey: "STORE_DRIVER"},
		{name: "sqlite without url", mutate: func(c *config.Config) { c.Store.Driver = "sqlite"; c.Store.DatabaseURL = "" }, wantKey: "DATABASE_URL"},
		{name: "negative history window", mutate: func(c *config.Config) { c.Chat.HistoryWindow = -1 }, wantKey: "HISTORY_WINDOW"},
		{name: "zero output tokens", mutate: func(c *config.Config) { c.Gemini.MaxOutputTokens = 0 }, wantKey: "GEMINI_MAX_OUTPUT_TOKENS"},
		{name: "temperature out of range", mutate: func(c *config.Config) { c.Gemini.Temperature = 3 }, wantKey: "GEMINI_TEMPERATURE"},
		{name: "zero burst with rate limiting", mutate: func(c *config.Config) { c.RateLimit.Burst = 0 }, wantKey: "RATE_LIMIT_BURST"},
		{name: "zero burst with rate limiting off", mutate: func(c *config.Config) { c.RateLimit.RequestsPerSecond = 0; c.RateLimit.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *config.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}
}
