package slidelimit

import "time"

// ConfigReport summarizes the effective limiter posture for operators and
// startup logs. All fields are derived from configuration; nothing in the
// report reflects live traffic.
type ConfigReport struct {
	Strategy         StrategyType
	FailurePolicy    FailurePolicy
	Window           time.Duration
	MaxRequests      int
	LocalFallback    bool
	ScopeCount       int
	IPThrottleActive bool
	MetricsEnabled   bool
	LatencyTracking  bool
	AuditEnabled     bool
}

// Report returns the limiter's effective configuration summary.
func (l *Limiter) Report() ConfigReport {
	if l == nil {
		return ConfigReport{}
	}

	ipThrottle := false
	for _, sc := range l.config.Scopes {
		if sc.EnableIPThrottle {
			ipThrottle = true
			break
		}
	}

	return ConfigReport{
		Strategy:         l.config.Strategy,
		FailurePolicy:    l.config.Failure.Policy,
		Window:           l.config.Window.Window,
		MaxRequests:      l.config.Window.MaxRequests,
		LocalFallback:    l.config.Failure.LocalFallback,
		ScopeCount:       len(l.config.Scopes),
		IPThrottleActive: ipThrottle,
		MetricsEnabled:   l.config.Metrics.Enabled,
		LatencyTracking:  l.config.Metrics.Enabled && l.config.Metrics.EnableLatencyHistograms,
		AuditEnabled:     l.config.Audit.Enabled,
	}
}
