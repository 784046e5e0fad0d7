package slidelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/danieltikamori/slidelimit/internal/audit"
	"github.com/danieltikamori/slidelimit/internal/throttle"
	"github.com/danieltikamori/slidelimit/internal/window"
)

// Limiter is the admission engine assembled by [Builder.Build]. All methods
// are safe for concurrent use.
//
// Limiter instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Limiter struct {
	config  Config
	store   window.Store
	local   *window.Local
	scopes  map[string]*throttle.Scoped
	audit   *audit.Dispatcher
	metrics *Metrics
	now     func() time.Time
	closed  atomic.Bool
}

// Allow runs one admission check for key at the current time.
//
// On a store failure the returned error wraps [ErrStoreUnavailable] and the
// Decision already reflects the configured failure policy, so callers that
// only care about the verdict can ignore the error when Decision.Allowed is
// set.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	return l.allow(ctx, key, l.now(), 1)
}

// AllowN is Allow for a request costing n units of budget.
func (l *Limiter) AllowN(ctx context.Context, key string, n int) (Decision, error) {
	return l.allow(ctx, key, l.now(), n)
}

// AllowAt is Allow with a caller-supplied timestamp. All recorded state uses
// the supplied time, which makes replayed traffic and tests deterministic.
// Timestamps are expected to be non-decreasing per key; the window holds a
// single timestamp source per deployment.
func (l *Limiter) AllowAt(ctx context.Context, key string, now time.Time) (Decision, error) {
	return l.allow(ctx, key, now, 1)
}

// Enforce is the error-verdict form of Allow: nil on admission,
// [ErrRateLimited] on rejection, and the policy-resolved outcome when the
// store is unavailable (nil under fail-open, wrapped [ErrStoreUnavailable]
// under fail-closed).
func (l *Limiter) Enforce(ctx context.Context, key string) error {
	d, err := l.Allow(ctx, key)
	if err != nil {
		if d.Allowed {
			return nil
		}
		return err
	}
	if !d.Allowed {
		return ErrRateLimited
	}
	return nil
}

// Remaining reports key's unused budget without recording anything.
func (l *Limiter) Remaining(ctx context.Context, key string) (int, error) {
	if l.closed.Load() {
		return 0, ErrLimiterClosed
	}

	count, err := l.store.Count(ctx, l.windowKey(key), l.now(), l.config.Window.Window)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	remaining := l.config.Window.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears all recorded state for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l.closed.Load() {
		return ErrLimiterClosed
	}

	if err := l.store.Reset(ctx, l.windowKey(key)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	l.metrics.Inc(MetricReset)
	l.emitAudit(ctx, audit.Event{
		EventType: auditEventReset,
		Key:       key,
		Allowed:   false,
	})
	return nil
}

// Scope returns the named scope limiter configured in Config.Scopes.
func (l *Limiter) Scope(name string) (*ScopedLimiter, error) {
	scoped, ok := l.scopes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, name)
	}
	return &ScopedLimiter{limiter: l, name: name, scoped: scoped}, nil
}

// Budget reports the effective root window configuration. Used by the HTTP
// middleware to fill X-RateLimit-Limit headers.
func (l *Limiter) Budget() WindowConfig {
	return l.config.Window
}

// MetricsSnapshot copies the current counters and histograms.
func (l *Limiter) MetricsSnapshot() MetricsSnapshot {
	return l.metrics.Snapshot()
}

// AuditDropped reports audit events lost to dispatcher backpressure.
func (l *Limiter) AuditDropped() uint64 {
	return l.audit.Dropped()
}

// Close stops the audit dispatcher and the local bucket sweeper. Subsequent
// admission calls return [ErrLimiterClosed].
func (l *Limiter) Close() {
	if l == nil || !l.closed.CompareAndSwap(false, true) {
		return
	}
	l.audit.Close()
	if l.local != nil {
		l.local.Close()
	}
}

func (l *Limiter) allow(ctx context.Context, key string, now time.Time, n int) (Decision, error) {
	if l.closed.Load() {
		return Decision{}, ErrLimiterClosed
	}
	if n <= 0 {
		n = 1
	}

	var start time.Time
	if l.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res, err := l.store.Take(ctx, l.windowKey(key), now, l.config.Window.Window, l.config.Window.MaxRequests, n)

	if l.metrics.LatencyEnabled() {
		l.metrics.Observe(MetricCheckLatency, time.Since(start))
	}

	if err != nil {
		return l.degraded(ctx, key, now, n, err)
	}

	d := Decision{
		Allowed:    res.Allowed,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}

	if d.Allowed {
		l.metrics.Inc(MetricAllowed)
	} else {
		l.metrics.Inc(MetricDenied)
		l.emitAudit(ctx, audit.Event{
			EventType: auditEventDenied,
			Key:       key,
			Allowed:   false,
			Metadata: map[string]string{
				"retry_after": d.RetryAfter.String(),
			},
		})
	}

	return d, nil
}

// degraded resolves an admission attempt that could not reach the store.
// The wrapped error is always surfaced so callers can distinguish a policy
// verdict from a recorded one.
func (l *Limiter) degraded(ctx context.Context, key string, now time.Time, n int, cause error) (Decision, error) {
	l.metrics.Inc(MetricStoreFailure)
	l.emitAudit(ctx, audit.Event{
		EventType: auditEventStoreFailure,
		Key:       key,
		Error:     cause.Error(),
	})
	err := fmt.Errorf("%w: %v", ErrStoreUnavailable, cause)

	if l.config.Failure.LocalFallback && l.local != nil {
		res, _ := l.local.Take(ctx, l.windowKey(key), now, l.config.Window.Window, l.config.Window.MaxRequests, n)
		l.metrics.Inc(MetricLocalFallback)
		d := Decision{
			Allowed:    res.Allowed,
			Remaining:  res.Remaining,
			RetryAfter: res.RetryAfter,
			Degraded:   true,
		}
		l.emitDegraded(ctx, key, d.Allowed, cause)
		return d, err
	}

	switch l.config.Failure.Policy {
	case FailClosed:
		l.metrics.Inc(MetricFailClosedDenied)
		l.emitDegraded(ctx, key, false, cause)
		return Decision{
			Allowed:    false,
			RetryAfter: l.config.Window.Window,
			Degraded:   true,
		}, err
	default:
		l.metrics.Inc(MetricFailOpenAllowed)
		l.emitDegraded(ctx, key, true, cause)
		return Decision{
			Allowed:   true,
			Remaining: l.config.Window.MaxRequests,
			Degraded:  true,
		}, err
	}
}

func (l *Limiter) emitDegraded(ctx context.Context, key string, allowed bool, cause error) {
	eventType := auditEventDegradedDrop
	if allowed {
		eventType = auditEventDegradedPass
	}
	l.emitAudit(ctx, audit.Event{
		EventType: eventType,
		Key:       key,
		Allowed:   allowed,
		Error:     cause.Error(),
	})
}

func (l *Limiter) emitAudit(ctx context.Context, event audit.Event) {
	if l.audit == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	l.audit.Emit(ctx, event)
}

func (l *Limiter) windowKey(key string) string {
	return l.config.KeyPrefix + ":w:" + key
}
