package slidelimit

import "time"

// Decision is returned by [Limiter.Allow] and friends.
//
// Remaining is the unused budget after this call. RetryAfter is how long the
// caller should wait before the oldest recorded request leaves the window;
// zero on admission. Degraded is set when the backing store was unreachable
// and the outcome came from failure policy or the local fallback bucket
// instead of recorded state.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	Degraded   bool
}
