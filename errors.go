package slidelimit

import "errors"

var (
	// ErrRateLimited is returned by Enforce-style APIs when a key is over budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrStoreUnavailable wraps store connectivity or script execution failures.
	// The Decision returned alongside it already reflects the configured
	// failure policy.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
	// ErrLimiterClosed is returned after Close.
	ErrLimiterClosed = errors.New("limiter closed")
	// ErrUnknownScope is returned by [Limiter.Scope] lookups for scope names
	// absent from Config.Scopes.
	ErrUnknownScope = errors.New("unknown rate limit scope")
)
