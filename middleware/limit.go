package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	slidelimit "github.com/danieltikamori/slidelimit"
)

// KeyFunc derives the rate-limit key for a request. Returning false skips
// limiting for that request (for example when no client IP can be
// determined).
type KeyFunc func(r *http.Request) (string, bool)

// Limit enforces the limiter's root window per derived key. Denied requests
// receive 429 with Retry-After and X-RateLimit-* headers; degraded
// decisions follow the limiter's failure policy transparently.
func Limit(limiter *slidelimit.Limiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || key == nil {
				next.ServeHTTP(w, r)
				return
			}

			k, ok := key(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			d, err := limiter.Allow(r.Context(), k)
			if err != nil && !d.Degraded {
				// Closed limiter or other terminal failure.
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			writeBudgetHeaders(w, limiter.Budget(), d)

			if !d.Allowed {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LimitScope enforces a named scope: the identifier budget keyed by
// identifier, plus the scope's per-IP budget using the client IP extractor.
// tenantHeader may be empty for single-tenant deployments.
func LimitScope(scoped *slidelimit.ScopedLimiter, identifier KeyFunc, clientIP KeyFunc, tenantHeader string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if scoped == nil || identifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			id, ok := identifier(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			var ip string
			if clientIP != nil {
				ip, _ = clientIP(r)
			}

			var tenantID string
			if tenantHeader != "" {
				tenantID = r.Header.Get(tenantHeader)
			}

			err := scoped.Enforce(r.Context(), tenantID, id, ip)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, slidelimit.ErrRateLimited):
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			default:
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}
		})
	}
}

func writeBudgetHeaders(w http.ResponseWriter, budget slidelimit.WindowConfig, d slidelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(budget.MaxRequests))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.Allowed && d.RetryAfter > 0 {
		secs := int64(d.RetryAfter / time.Second)
		if d.RetryAfter%time.Second > 0 {
			secs++
		}
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
}
