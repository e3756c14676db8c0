/*
Package monitoring provides Prometheus metrics for the permission controller.

# Overview

Metrics cover HTTP traffic, categorized view recomputes, screen-view
statistics, grant changes, device operations and WebSocket streams. Each
Metrics value owns its registry so tests and multiple servers do not collide.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	manager := permapps.NewManager(env).WithMetrics(metrics)

	timer := monitoring.NewTimer(metrics, "set_grant_state")
	err := device.SetGrantState(...)
	timer.Stop(err)

# Metrics Endpoint

	handler := promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})
	router.GET("/metrics", gin.WrapH(handler))
*/
package monitoring
