package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Device    DeviceConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// DeviceConfig selects the simulated device.
// A fixture overrides SDK level and form factor when it sets them.
type DeviceConfig struct {
	Fixture    string `envconfig:"DEVICE_FIXTURE" default:""`
	SDKLevel   int    `envconfig:"DEVICE_SDK_LEVEL" default:"34"`
	FormFactor string `envconfig:"DEVICE_FORM_FACTOR" default:"handheld"`
}

// TelemetryConfig holds screen-view statistics upload configuration.
type TelemetryConfig struct {
	Enabled          bool          `envconfig:"TELEMETRY_ENABLED" default:"false"`
	Endpoint         string        `envconfig:"TELEMETRY_ENDPOINT" default:""`
	RetryMax         int           `envconfig:"TELEMETRY_RETRY_MAX" default:"3"`
	Timeout          time.Duration `envconfig:"TELEMETRY_TIMEOUT" default:"10s"`
	BreakerThreshold uint32        `envconfig:"TELEMETRY_BREAKER_THRESHOLD" default:"5"`
	BreakerCooldown  time.Duration `envconfig:"TELEMETRY_BREAKER_COOLDOWN" default:"30s"`
	Store            string        `envconfig:"TELEMETRY_STORE" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Device: DeviceConfig{
			SDKLevel:   34,
			FormFactor: "handheld",
		},
		Telemetry: TelemetryConfig{
			Enabled:          false,
			RetryMax:         3,
			Timeout:          10 * time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
	}
}
