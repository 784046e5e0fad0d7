// Package slidelimit provides a distributed sliding-window rate limiter backed by a
// Redis-compatible store, with per-scope key throttling, configurable fail-open or
// fail-closed degradation, and an optional in-process fallback limiter.
//
// The package is designed for concurrent server workloads: Limiter methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// slidelimit is the public surface. It exposes [Limiter], [Builder], [Config], and
// value types (Decision, MetricsSnapshot, Event, etc.). All internal coordination —
// window scripts, local token buckets, audit dispatch — lives under internal/ and is
// never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, script text, or key layout details in its public API.
//   - Perform I/O outside of Limiter methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports slidelimit (no import cycles).
//
// # Atomicity contract
//
// Allow is the hot path and costs exactly one store round-trip. The prune, count,
// record, and expire steps run as a single server-side script, so two concurrent
// callers for the same key can never both observe count < max and both record. On
// rejection nothing is written.
package slidelimit
