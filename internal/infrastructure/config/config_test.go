package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	// Device config
	assert.Empty(t, cfg.Device.Fixture)
	assert.Equal(t, 34, cfg.Device.SDKLevel)
	assert.Equal(t, "handheld", cfg.Device.FormFactor)

	// Telemetry config
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 3, cfg.Telemetry.RetryMax)
	assert.Equal(t, 10*time.Second, cfg.Telemetry.Timeout)
	assert.Equal(t, uint32(5), cfg.Telemetry.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.Telemetry.BreakerCooldown)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                "9000",
		"HOST":                "127.0.0.1",
		"LOG_LEVEL":           "debug",
		"LOG_DEV":             "true",
		"RATE_LIMIT_RPS":      "500",
		"RATE_LIMIT_BURST":    "1000",
		"RATE_LIMIT_ENABLED":  "false",
		"DEVICE_FIXTURE":      "testdata/device.yaml",
		"DEVICE_SDK_LEVEL":    "31",
		"DEVICE_FORM_FACTOR":  "wear",
		"TELEMETRY_ENABLED":   "true",
		"TELEMETRY_ENDPOINT":  "http://collector:4318/events",
		"TELEMETRY_RETRY_MAX": "5",
		"TELEMETRY_TIMEOUT":   "2s",
		"TELEMETRY_STORE":     "/var/lib/permcontroller/stats.sqlite",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "testdata/device.yaml", cfg.Device.Fixture)
	assert.Equal(t, 31, cfg.Device.SDKLevel)
	assert.Equal(t, "wear", cfg.Device.FormFactor)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http://collector:4318/events", cfg.Telemetry.Endpoint)
	assert.Equal(t, 5, cfg.Telemetry.RetryMax)
	assert.Equal(t, 2*time.Second, cfg.Telemetry.Timeout)
	assert.Equal(t, "/var/lib/permcontroller/stats.sqlite", cfg.Telemetry.Store)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 34, cfg.Device.SDKLevel)
}

func TestServerConfig(t *testing.T) {
	tests := []struct {
		name     string
		port     string
		host     string
		wantPort string
		wantHost string
	}{
		{
			name:     "default values",
			wantPort: "8000",
			wantHost: "0.0.0.0",
		},
		{
			name:     "custom port",
			port:     "9000",
			wantPort: "9000",
			wantHost: "0.0.0.0",
		},
		{
			name:     "custom host",
			host:     "localhost",
			wantPort: "8000",
			wantHost: "localhost",
		},
		{
			name:     "custom port and host",
			port:     "3000",
			host:     "127.0.0.1",
			wantPort: "3000",
			wantHost: "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("PORT")
			os.Unsetenv("HOST")

			if tt.port != "" {
				t.Setenv("PORT", tt.port)
			}
			if tt.host != "" {
				t.Setenv("HOST", tt.host)
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantPort, cfg.Server.Port)
			assert.Equal(t, tt.wantHost, cfg.Server.Host)
		})
	}
}

func TestInvalidValuesFallBackToDefault(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"sdk level", "DEVICE_SDK_LEVEL", "tiramisu"},
		{"timeout", "TELEMETRY_TIMEOUT", "soon"},
		{"rate limit", "RATE_LIMIT_RPS", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}
