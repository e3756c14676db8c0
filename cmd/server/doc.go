// Package main is the entry point of the permission controller server.
//
// The server simulates a device from a fixture file and serves the data behind
// the per-permission-group app list screens: categorized app lists, the show
// system toggle, full storage queries, sensor blocked status and screen-view
// telemetry.
//
// Configuration:
//   - Environment variables (PORT, LOG_LEVEL, DEVICE_FIXTURE, TELEMETRY_ENDPOINT, ...)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	./server -port 8000 -fixture device.yaml
//
//	# Development mode (colored logs)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
