// Package config provides 12-factor configuration management for the permission controller.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Device: Simulated device fixture, SDK level and form factor
//   - Telemetry: Screen-view statistics upload
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - DEVICE_FIXTURE, DEVICE_SDK_LEVEL, DEVICE_FORM_FACTOR
//   - TELEMETRY_ENABLED, TELEMETRY_ENDPOINT, TELEMETRY_RETRY_MAX, TELEMETRY_TIMEOUT
//   - TELEMETRY_BREAKER_THRESHOLD, TELEMETRY_BREAKER_COOLDOWN
//   - TELEMETRY_STORE: SQLite file that keeps screen-view events (empty disables)
package config
