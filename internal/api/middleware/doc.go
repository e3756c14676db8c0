// Package middleware provides HTTP middleware for the permission controller API.
//
// Middleware stack includes:
//   - RequestID: ULID request ids, echoed in the X-Request-ID header
//   - Logger: Request logging through zap
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
