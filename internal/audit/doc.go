// Package audit implements async event dispatching for rate-limit decisions.
//
// # Components
//
//   - [Sink] — interface for event consumers; concrete sinks live in the root package.
//   - [Dispatcher] — buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event] — structured record with timestamp, type, scope, key, tenant, IP, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit — that responsibility belongs to the Limiter.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on limiter policy.
//   - Import slidelimit or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
