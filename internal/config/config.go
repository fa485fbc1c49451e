package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type ServerConfig struct {
	HTTPPort       string   `toml:"http_port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type GeminiConfig struct {
	APIKey          string  `toml:"api_key"`
	Model           string  `toml:"model"`
	MaxOutputTokens int32   `toml:"max_output_tokens"`
	Temperature     float32 `toml:"temperature"`
}

type ChatConfig struct {
	HistoryWindow int           `toml:"history_window"`
	CardDelay     time.Duration `toml:"card_delay"`
}

type StoreConfig struct {
	Driver      string `toml:"driver"` // "memory" or "sqlite"
	DatabaseURL string `toml:"database_url"`
}

type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret"`
	TokenTTL  time.Duration `toml:"token_ttl"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type BreakerConfig struct {
	Enabled     bool          `toml:"enabled"`
	MaxFailures uint32        `toml:"max_failures"`
	Cooldown    time.Duration `toml:"cooldown"`
}

type Config struct {
	LogLevel    string          `toml:"log_level"`
	ProfilePath string          `toml:"profile_path"`
	Server      ServerConfig    `toml:"server"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Chat        ChatConfig      `toml:"chat"`
	Store       StoreConfig     `toml:"store"`
	Auth        AuthConfig      `toml:"auth"`
	RateLimit   RateLimitConfig `toml:"rate_limit"`
	Breaker     BreakerConfig   `toml:"breaker"`
}

// ConfigurationError reports a missing or malformed setting.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// IsMissingAPIKey reports whether err is the non-fatal missing Gemini key error.
func IsMissingAPIKey(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr) && cfgErr.Key == "GEMINI_API_KEY"
}

func Defaults() Config {
	return Config{
		LogLevel: "INFO",
		Server: ServerConfig{
			HTTPPort:       "8080",
			AllowedOrigins: []string{"*"},
		},
		Gemini: GeminiConfig{
			Model:           "gemini-2.0-flash",
			MaxOutputTokens: 1000,
			Temperature:     0.7,
		},
		Chat: ChatConfig{
			HistoryWindow: 5,
			CardDelay:     500 * time.Millisecond,
		},
		Store: StoreConfig{
			Driver:      "memory",
			DatabaseURL: "portfolio_chat.db",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             5,
		},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 5,
			Cooldown:    30 * time.Second,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional TOML file and
// the environment, in increasing order of precedence. A non-empty configFile
// takes priority over CONFIG_FILE.
//
// The returned *Config is usable even when the error only reports a missing
// GEMINI_API_KEY (see IsMissingAPIKey); completion calls then fail downstream.
func LoadConfig(configFile string) (*Config, error) {
	// .env is optional; plain environment variables work without it.
	_ = godotenv.Load()

	cfg := Defaults()

	if configFile == "" {
		configFile = getEnv("CONFIG_FILE", "")
	}
	if configFile != "" {
		if _, err := toml.DecodeFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ProfilePath = getEnv("PROFILE_PATH", cfg.ProfilePath)
	cfg.Server.HTTPPort = getEnv("HTTP_PORT", cfg.Server.HTTPPort)
	cfg.Server.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Gemini.APIKey = getEnv("GEMINI_API_KEY", cfg.Gemini.APIKey)
	cfg.Gemini.Model = getEnv("GEMINI_MODEL", cfg.Gemini.Model)
	cfg.Gemini.MaxOutputTokens = int32(getEnvAsInt("GEMINI_MAX_OUTPUT_TOKENS", int(cfg.Gemini.MaxOutputTokens)))
	cfg.Gemini.Temperature = float32(getEnvAsFloat("GEMINI_TEMPERATURE", float64(cfg.Gemini.Temperature)))
	cfg.Chat.HistoryWindow = getEnvAsInt("HISTORY_WINDOW", cfg.Chat.HistoryWindow)
	cfg.Chat.CardDelay = getEnvAsDuration("CARD_DELAY", cfg.Chat.CardDelay)
	cfg.Store.Driver = getEnv("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.DatabaseURL = getEnv("DATABASE_URL", cfg.Store.DatabaseURL)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = getEnvAsDuration("TOKEN_TTL", cfg.Auth.TokenTTL)
	cfg.RateLimit.RequestsPerSecond = getEnvAsFloat("RATE_LIMIT_RPS", cfg.RateLimit.RequestsPerSecond)
	cfg.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.Breaker.Enabled = getEnvAsBool("BREAKER_ENABLED", cfg.Breaker.Enabled)
	cfg.Breaker.MaxFailures = uint32(getEnvAsInt("BREAKER_MAX_FAILURES", int(cfg.Breaker.MaxFailures)))
	cfg.Breaker.Cooldown = getEnvAsDuration("BREAKER_COOLDOWN", cfg.Breaker.Cooldown)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Gemini.APIKey == "" {
		return &cfg, &ConfigurationError{Key: "GEMINI_API_KEY", Reason: "environment variable is not set"}
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.DatabaseURL == "" {
			return &ConfigurationError{Key: "DATABASE_URL", Reason: "required for the sqlite store"}
		}
	default:
		return &ConfigurationError{Key: "STORE_DRIVER", Reason: fmt.Sprintf("unknown driver %q", c.Store.Driver)}
	}
	if c.Chat.HistoryWindow < 0 {
		return &ConfigurationError{Key: "HISTORY_WINDOW", Reason: "must not be negative"}
	}
	if c.Gemini.MaxOutputTokens <= 0 {
		return &ConfigurationError{Key: "GEMINI_MAX_OUTPUT_TOKENS", Reason: "must be positive"}
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return &ConfigurationError{Key: "GEMINI_TEMPERATURE", Reason: "must be between 0 and 2"}
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return &ConfigurationError{Key: "RATE_LIMIT_RPS", Reason: "rate limit settings must not be negative"}
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		return &ConfigurationError{Key: "RATE_LIMIT_BURST", Reason: "must be at least 1 when rate limiting is enabled"}
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
