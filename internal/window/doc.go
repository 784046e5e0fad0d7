// Package window provides the store-level admission primitives behind the public
// limiter: a Lua sliding-window sorted set, a Lua fixed-window counter, and an
// in-process token-bucket store.
//
// # Window semantics
//
// Sliding: a per-key sorted set of admission timestamps (score = unix millis).
// Each Take prunes scores <= now-window, so an entry exactly at the window
// boundary no longer counts. The prune, count, record, and expire steps run as
// one server-side script; a rejected Take writes nothing.
//
// Fixed: a per-key counter with a TTL set on the first hit of the window.
// Rejection is side-effect free here too (read-check-increment in one script).
//
// # What this package must NOT do
//
//   - Apply failure policy (fail-open/fail-closed lives in the root package).
//   - Build domain key layouts (scoped key construction lives with callers).
//   - Be imported outside the slidelimit module.
package window
