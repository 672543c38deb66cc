package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"exercises-server/game"
)

// DefaultConfigFile is read from the working directory when present.
const DefaultConfigFile = "config.json"

// Config holds all configurable parameters of the server and the CLI.
type Config struct {
	// FlipDurationMS is passed to every game unvalidated; the game clamps it.
	FlipDurationMS int         `mapstructure:"flip_duration_ms" json:"flip_duration_ms"`
	Deck           []game.Face `mapstructure:"deck" json:"deck" validate:"min=1,dive"`

	HTTPPort      int    `mapstructure:"http_port" json:"http_port" validate:"gt=0,lt=65536"`
	MaxNameLength int    `mapstructure:"max_name_length" json:"max_name_length" validate:"gt=0"`
	LogLevel      string `mapstructure:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	ExchangeAPIURL            string  `mapstructure:"exchange_api_url" json:"exchange_api_url" validate:"required,url"`
	ExchangeRequestsPerSecond float64 `mapstructure:"exchange_requests_per_second" json:"exchange_requests_per_second" validate:"gt=0"`
	ExchangeTimeoutSec        int     `mapstructure:"exchange_timeout_sec" json:"exchange_timeout_sec" validate:"gt=0"`
	RateCacheTTLSec           int     `mapstructure:"rate_cache_ttl_sec" json:"rate_cache_ttl_sec" validate:"gte=0"`

	// DatabaseURL enables the exchange-rate history when set.
	DatabaseURL string `mapstructure:"database_url" json:"database_url"`
	// RedisAddr enables the latest-rate cache when set.
	RedisAddr string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db" json:"redis_db" validate:"gte=0"`
	// AuthBaseURL makes websocket clients authenticate with a JWT before playing.
	AuthBaseURL string `mapstructure:"auth_base_url" json:"auth_base_url" validate:"omitempty,url"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		FlipDurationMS: 1000,
		Deck: []game.Face{
			{Name: "Python", Image: "./img/Python.svg"},
			{Name: "JavaScript", Image: "./img/JS.svg"},
			{Name: "Java", Image: "./img/Java.svg"},
			{Name: "CSharp", Image: "./img/CSharp.svg"},
			{Name: "Go", Image: "./img/Go.svg"},
			{Name: "Ruby", Image: "./img/Ruby.svg"},
		},
		HTTPPort:                  8080,
		MaxNameLength:             24,
		LogLevel:                  "info",
		ExchangeAPIURL:            "https://api.frankfurter.app",
		ExchangeRequestsPerSecond: 5,
		ExchangeTimeoutSec:        10,
		RateCacheTTLSec:           600,
	}
}

// intKeys maps integer settings to the environment variables that override them.
var intKeys = map[string]string{
	"http_port":            "HTTP_PORT",
	"max_name_length":      "MAX_NAME_LENGTH",
	"exchange_timeout_sec": "EXCHANGE_TIMEOUT_SEC",
	"rate_cache_ttl_sec":   "RATE_CACHE_TTL_SEC",
	"redis_db":             "REDIS_DB",
}

var stringKeys = map[string]string{
	"log_level":        "LOG_LEVEL",
	"exchange_api_url": "EXCHANGE_API_URL",
	"database_url":     "DATABASE_URL",
	"redis_addr":       "REDIS_ADDR",
	"auth_base_url":    "AUTH_BASE_URL",
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) *Config {
	cfg := Defaults()
	v := viper.New()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", path, "err", err)
		}
	}

	_ = v.BindEnv("flip_duration_ms", "FLIP_DURATION_MS")
	_ = v.BindEnv("exchange_requests_per_second", "EXCHANGE_REQUESTS_PER_SECOND")
	for key, env := range intKeys {
		_ = v.BindEnv(key, env)
	}
	for key, env := range stringKeys {
		_ = v.BindEnv(key, env)
	}

	if v.IsSet("flip_duration_ms") {
		raw := strings.TrimSpace(v.GetString("flip_duration_ms"))
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			// Fractional values are truncated; the game still checks the range.
			cfg.FlipDurationMS = int(f)
		} else {
			// Not a number: leave it invalid so the game clamps it and warns the player.
			slog.Warn("flip duration is not a number", "tag", "config", "value", raw)
			cfg.FlipDurationMS = 0
		}
	}
	if v.IsSet("exchange_requests_per_second") {
		raw := v.GetString("exchange_requests_per_second")
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.ExchangeRequestsPerSecond = f
		} else {
			slog.Warn("invalid value", "tag", "config", "key", "exchange_requests_per_second", "value", raw)
		}
	}

	overrideInt(v, "http_port", &cfg.HTTPPort)
	overrideInt(v, "max_name_length", &cfg.MaxNameLength)
	overrideInt(v, "exchange_timeout_sec", &cfg.ExchangeTimeoutSec)
	overrideInt(v, "rate_cache_ttl_sec", &cfg.RateCacheTTLSec)
	overrideInt(v, "redis_db", &cfg.RedisDB)

	overrideString(v, "log_level", &cfg.LogLevel)
	overrideString(v, "exchange_api_url", &cfg.ExchangeAPIURL)
	overrideString(v, "database_url", &cfg.DatabaseURL)
	overrideString(v, "redis_addr", &cfg.RedisAddr)
	overrideString(v, "auth_base_url", &cfg.AuthBaseURL)

	if v.IsSet("deck") {
		var deck []game.Face
		if err := v.UnmarshalKey("deck", &deck); err != nil {
			slog.Warn("invalid deck, using default", "tag", "config", "err", err)
		} else {
			cfg.Deck = deck
		}
	}

	return cfg
}

var validate = validator.New()

// Validate checks the structural settings. The flip duration is left to the game.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func overrideInt(v *viper.Viper, key string, field *int) {
	if !v.IsSet(key) {
		return
	}
	raw := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(raw); err == nil {
		*field = n
	} else {
		slog.Warn("invalid value", "tag", "config", "key", key, "value", raw)
	}
}

func overrideString(v *viper.Viper, key string, field *string) {
	if val := v.GetString(key); val != "" {
		*field = val
	}
}
