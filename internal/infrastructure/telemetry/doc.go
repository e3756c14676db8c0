/*
Package telemetry records structured statistics events for permission screens.

# Overview

Each time a permission group screen is shown, one event is written per listed
app. An event carries the screen session id, a random view id, the group name,
the app uid and package name, and the category the app was listed under.

# Sinks

  - LogSink writes events through zap.
  - MetricsSink counts events in Prometheus.
  - HTTPSink uploads events as JSON to a collector using a retrying client
    behind a circuit breaker.
  - Store keeps events in a local SQLite file and aggregates them per group.
  - Multi fans an event out to several sinks.

# Usage

	sink := telemetry.Multi{
		telemetry.NewLogSink(logger),
		telemetry.NewMetricsSink(metrics),
	}
	_ = sink.Write(ctx, telemetry.Event{...})
*/
package telemetry
