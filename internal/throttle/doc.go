// Package throttle provides named-scope limiters built on top of the
// internal/window stores.
//
// A scope ("login", "password-reset", ...) owns its own key namespace and
// budget, and can throttle the same request by identifier and by client IP
// independently, tenant-scoped keys in both classes.
//
// # Key layout
//
//	<prefix>:<scope>:id:<tenant>:<identifier>
//	<prefix>:<scope>:ip:<tenant>:<ip>
//
// An empty tenant normalizes to "0" so single-tenant callers share one
// namespace.
//
// # What this package must NOT do
//
//   - Apply failure policy (the root package decides fail-open/fail-closed).
//   - Import slidelimit or any sibling internal package except internal/window.
package throttle
