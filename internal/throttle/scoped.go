package throttle

import (
	"context"
	"errors"
	"time"

	"github.com/danieltikamori/slidelimit/internal/window"
)

// ErrRateLimited is returned when a scope key is over budget.
var ErrRateLimited = errors.New("scope rate limited")

// Config holds one scope's tuning parameters.
type Config struct {
	Prefix                   string
	Scope                    string
	Window                   time.Duration
	MaxRequests              int
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
}

// Scoped enforces per-identifier and per-IP budgets for one named scope.
// All limiter methods are nil-safe: calling them on a nil receiver returns nil.
type Scoped struct {
	store  window.Store
	config Config
}

// NewScoped creates a scope limiter backed by the given window store.
func NewScoped(store window.Store, cfg Config) *Scoped {
	return &Scoped{
		store:  store,
		config: cfg,
	}
}

// Enforce applies the identifier throttle and, when enabled and an IP is
// present, the IP throttle. The identifier admission is recorded even when
// the IP check subsequently rejects; attempts against a throttled pair are
// supposed to burn budget.
func (l *Scoped) Enforce(ctx context.Context, now time.Time, tenantID, identifier, ip string) error {
	if l == nil {
		return nil
	}

	if l.config.EnableIdentifierThrottle && identifier != "" {
		if err := l.enforceKey(ctx, now, l.identifierKey(tenantID, identifier)); err != nil {
			return err
		}
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceKey(ctx, now, l.ipKey(tenantID, ip)); err != nil {
			return err
		}
	}

	return nil
}

// Remaining reports the identifier key's unused budget.
func (l *Scoped) Remaining(ctx context.Context, now time.Time, tenantID, identifier string) (int, error) {
	if l == nil {
		return 0, nil
	}

	count, err := l.store.Count(ctx, l.identifierKey(tenantID, identifier), now, l.config.Window)
	if err != nil {
		return 0, err
	}

	remaining := l.config.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears both throttle classes for the identifier+IP pair.
func (l *Scoped) Reset(ctx context.Context, tenantID, identifier, ip string) error {
	if l == nil {
		return nil
	}

	if identifier != "" {
		if err := l.store.Reset(ctx, l.identifierKey(tenantID, identifier)); err != nil {
			return err
		}
	}
	if ip != "" {
		if err := l.store.Reset(ctx, l.ipKey(tenantID, ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *Scoped) enforceKey(ctx context.Context, now time.Time, key string) error {
	res, err := l.store.Take(ctx, key, now, l.config.Window, l.config.MaxRequests, 1)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return ErrRateLimited
	}
	return nil
}

func (l *Scoped) identifierKey(tenantID, identifier string) string {
	return l.config.Prefix + ":" + l.config.Scope + ":id:" + normalizeTenantID(tenantID) + ":" + identifier
}

func (l *Scoped) ipKey(tenantID, ip string) string {
	return l.config.Prefix + ":" + l.config.Scope + ":ip:" + normalizeTenantID(tenantID) + ":" + ip
}

func normalizeTenantID(tenantID string) string {
	if tenantID == "" {
		return "0"
	}
	return tenantID
}
