package slidelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieltikamori/slidelimit/internal/audit"
	"github.com/danieltikamori/slidelimit/internal/throttle"
	"github.com/danieltikamori/slidelimit/internal/window"
)

// ScopedLimiter enforces one named scope from Config.Scopes: a
// per-identifier budget plus, when enabled, a per-IP budget, both
// tenant-scoped. Obtained via [Limiter.Scope].
type ScopedLimiter struct {
	limiter *Limiter
	name    string
	scoped  *throttle.Scoped
}

// Name reports the scope name this limiter enforces.
func (s *ScopedLimiter) Name() string {
	return s.name
}

// Enforce admits or rejects one attempt for the tenant/identifier/IP triple.
// Rejection returns [ErrRateLimited]. Store unavailability resolves through
// the limiter's failure policy: nil under fail-open, wrapped
// [ErrStoreUnavailable] under fail-closed.
func (s *ScopedLimiter) Enforce(ctx context.Context, tenantID, identifier, ip string) error {
	if s.limiter.closed.Load() {
		return ErrLimiterClosed
	}

	err := s.scoped.Enforce(ctx, s.limiter.now(), tenantID, identifier, ip)
	if err == nil {
		s.limiter.metrics.Inc(MetricAllowed)
		return nil
	}

	if errors.Is(err, throttle.ErrRateLimited) {
		s.limiter.metrics.Inc(MetricScopeDenied)
		s.limiter.emitAudit(ctx, audit.Event{
			EventType: auditEventScopeDenied,
			Scope:     s.name,
			Key:       identifier,
			TenantID:  tenantID,
			IP:        ip,
			Allowed:   false,
		})
		return ErrRateLimited
	}

	if errors.Is(err, window.ErrUnavailable) {
		s.limiter.metrics.Inc(MetricStoreFailure)
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		if s.limiter.config.Failure.Policy == FailClosed {
			s.limiter.metrics.Inc(MetricFailClosedDenied)
			s.limiter.emitDegraded(ctx, identifier, false, err)
			return wrapped
		}
		s.limiter.metrics.Inc(MetricFailOpenAllowed)
		s.limiter.emitDegraded(ctx, identifier, true, err)
		return nil
	}

	return err
}

// Remaining reports the identifier key's unused budget within the scope.
func (s *ScopedLimiter) Remaining(ctx context.Context, tenantID, identifier string) (int, error) {
	remaining, err := s.scoped.Remaining(ctx, s.limiter.now(), tenantID, identifier)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return remaining, nil
}

// Reset clears the scope's recorded state for the identifier+IP pair.
// Called after a successful login or equivalent scope-specific recovery.
func (s *ScopedLimiter) Reset(ctx context.Context, tenantID, identifier, ip string) error {
	if err := s.scoped.Reset(ctx, tenantID, identifier, ip); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.limiter.metrics.Inc(MetricReset)
	return nil
}
