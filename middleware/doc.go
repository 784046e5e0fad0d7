// Package middleware exposes HTTP middleware adapters for rate-limit
// enforcement built on top of slidelimit.Limiter admission.
//
// # Adapters
//
//   - [Limit] — per-request admission keyed by a [KeyFunc].
//   - [LimitScope] — named-scope enforcement (identifier + client IP).
//
// Each adapter derives a key from the request, calls the limiter, and
// translates the Decision into 429 responses with Retry-After and
// X-RateLimit-* headers.
//
// # Key extraction
//
//   - [ByClientIP] — remote address, honoring X-Forwarded-For only from
//     configured trusted proxies.
//   - [ByHeader] — a caller-chosen header value (API keys, tenant IDs).
//   - [ByTokenSubject] — the sub claim of a bearer JWT, parsed without
//     signature verification. Authentication stays the caller's concern;
//     this is a keying aid only.
//
// # What this package must NOT do
//
//   - Verify token signatures (a dedicated auth layer does that).
//   - Access the store directly (Limiter handles I/O).
//   - Make admission decisions beyond pass/reject from the Limiter.
package middleware
