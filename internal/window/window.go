package window

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps store connectivity and script execution failures.
var ErrUnavailable = errors.New("window store unavailable")

// Result is the outcome of one admission attempt.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Store is the admission contract shared by every strategy. Take atomically
// decides and, only when admitting, records n requests at time now against
// the given window and budget.
type Store interface {
	Take(ctx context.Context, key string, now time.Time, window time.Duration, limit, n int) (Result, error)
	// Count reports the live entries for key inside the window without
	// recording anything.
	Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, error)
	// Reset clears all recorded state for key.
	Reset(ctx context.Context, key string) error
}

// keyTTL is the expiry applied to window keys: window rounded up to whole
// seconds plus one, so an idle key outlives its window by at most a second.
func keyTTL(window time.Duration) time.Duration {
	secs := int64(window/time.Second) + 1
	return time.Duration(secs) * time.Second
}
