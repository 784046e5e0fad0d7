// Package prometheus renders slidelimit metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts a [slidelimit.Limiter] and exposes an
// [net/http.Handler] that renders all counters and histograms. Counter names
// are prefixed slidelimit_*_total; the single histogram is
// slidelimit_check_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate limiter state.
package prometheus
