// Package http provides the REST API of the permission controller.
//
// Handlers are gin handlers over a permapps.Manager (one model per permission
// group screen) and the simulated platform device.
//
// Endpoints:
//   - Health: / and /health
//   - Groups: /groups, /groups/:group, /groups/:group/show-system
//   - Queries: /groups/:group/full-storage, /groups/:group/loaded,
//     /groups/:group/sensor-status, /groups/:group/apps/:package/route
//   - Usage: /groups/:group/usage-summary
//   - Telemetry: /groups/:group/screen-views
//   - Device: /groups/:group/apps/:package/grant, /sensors/:sensor/privacy, /location
//   - Stats: /stats
//
// Errors are returned as {"error": "..."} with 400, 404 or 500.
//
// Example Usage:
//
//	handlers := http.NewHandlers(manager, feeds, metrics, logger)
//	router.GET("/groups/:group", handlers.GetGroup)
package http
