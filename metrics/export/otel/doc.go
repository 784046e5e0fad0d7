// Package otel provides OpenTelemetry metric exporter bindings for slidelimit
// counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each core
// metric and Int64ObservableGauge per histogram bucket. A single callback reads
// [slidelimit.Limiter.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate limiter state.
package otel
