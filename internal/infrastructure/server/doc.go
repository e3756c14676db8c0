// Package server wires the permission controller together: the simulated
// device and its feeds, the per-group model manager, telemetry sinks and the
// gin router with its middleware, REST handlers, WebSocket stream and
// Prometheus endpoint.
package server
