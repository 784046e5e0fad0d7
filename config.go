package slidelimit

import (
	"errors"
	"time"
)

// StrategyType selects the admission algorithm backing a [Limiter].
//
// StrategyType instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StrategyType int

const (
	// StrategySliding admits requests against a sliding window of recorded
	// timestamps held in a store-side sorted set. This is the default.
	StrategySliding StrategyType = iota
	// StrategyFixed admits requests against a fixed-window counter.
	StrategyFixed
	// StrategyLocal admits requests from an in-process token bucket and
	// never touches the store.
	StrategyLocal
)

// FailurePolicy decides what happens to a request when the backing store is
// unreachable or returns a command error.
type FailurePolicy int

const (
	// FailOpen admits every request while the store is unavailable.
	FailOpen FailurePolicy = iota
	// FailClosed rejects every request while the store is unavailable.
	FailClosed
)

/*
====================================
WINDOW CONFIG
====================================
*/

// WindowConfig defines a public type used by slidelimit APIs.
//
// WindowConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type WindowConfig struct {
	// Window is the sliding interval over which requests are counted.
	Window time.Duration
	// MaxRequests is the admission budget inside one Window.
	MaxRequests int
}

/*
====================================
SCOPE CONFIG
====================================
*/

// ScopeConfig parameterizes one named limiter scope (e.g. "login",
// "password-reset", "account-creation"). Zero-valued window fields inherit
// the root WindowConfig.
type ScopeConfig struct {
	Window                   time.Duration
	MaxRequests              int
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
}

/*
====================================
FAILURE CONFIG
====================================
*/

// FailureConfig defines a public type used by slidelimit APIs.
//
// FailureConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FailureConfig struct {
	Policy FailurePolicy
	// LocalFallback routes admission through an in-process token bucket
	// while the store is unavailable, instead of the blanket allow/deny
	// the Policy alone would produce.
	LocalFallback bool
}

/*
====================================
LOCAL CONFIG
====================================
*/

// LocalConfig bounds the in-process limiter used by [StrategyLocal] and by
// degraded-mode fallback.
type LocalConfig struct {
	// MaxKeys caps the number of tracked keys. Zero means 10000.
	MaxKeys int
	// SweepInterval is how often idle keys are evicted. Zero means 5m.
	SweepInterval time.Duration
}

/*
====================================
METRICS / AUDIT CONFIG
====================================
*/

// MetricsConfig defines a public type used by slidelimit APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
ROOT CONFIG
====================================
*/

// Config defines a public type used by slidelimit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// KeyPrefix namespaces every store key. Defaults to "sl".
	KeyPrefix string
	Strategy  StrategyType
	Window    WindowConfig
	Failure   FailureConfig
	Local     LocalConfig
	Scopes    map[string]ScopeConfig
	Metrics   MetricsConfig
	Audit     AuditConfig
}

/*
====================================
PRESETS
====================================
*/

// DefaultConfig returns the baseline configuration: sliding window, 100
// requests per minute, fail-open, metrics and audit off.
func DefaultConfig() Config {
	return defaultConfig()
}

// StrictConfig returns a fail-closed preset with a tighter budget and audit
// dispatch enabled. Intended for authentication-facing endpoints.
func StrictConfig() Config {
	cfg := defaultConfig()
	cfg.Window = WindowConfig{Window: time.Minute, MaxRequests: 10}
	cfg.Failure = FailureConfig{Policy: FailClosed}
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 1024, DropIfFull: true}
	cfg.Scopes = map[string]ScopeConfig{
		"login": {
			Window:                   15 * time.Minute,
			MaxRequests:              5,
			EnableIdentifierThrottle: true,
			EnableIPThrottle:         true,
		},
	}
	return cfg
}

// HighThroughputConfig returns a fail-open preset with a generous budget and
// local fallback, for traffic where availability beats precision.
func HighThroughputConfig() Config {
	cfg := defaultConfig()
	cfg.Window = WindowConfig{Window: time.Second, MaxRequests: 1000}
	cfg.Failure = FailureConfig{Policy: FailOpen, LocalFallback: true}
	cfg.Metrics = MetricsConfig{Enabled: true}
	return cfg
}

func defaultConfig() Config {
	return Config{
		KeyPrefix: "sl",
		Strategy:  StrategySliding,
		Window: WindowConfig{
			Window:      time.Minute,
			MaxRequests: 100,
		},
		Failure: FailureConfig{
			Policy:        FailOpen,
			LocalFallback: false,
		},
		Local: LocalConfig{
			MaxKeys:       10000,
			SweepInterval: 5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Scopes != nil {
		out.Scopes = make(map[string]ScopeConfig, len(cfg.Scopes))
		for name, sc := range cfg.Scopes {
			out.Scopes[name] = sc
		}
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when a configured value violates a documented bound.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.KeyPrefix == "" {
		return errors.New("KeyPrefix must not be empty")
	}

	switch c.Strategy {
	case StrategySliding, StrategyFixed, StrategyLocal:
		// valid
	default:
		return errors.New("Strategy is invalid")
	}

	if c.Window.Window < time.Millisecond {
		return errors.New("Window Window must be >= 1ms")
	}
	if c.Window.MaxRequests <= 0 {
		return errors.New("Window MaxRequests must be > 0")
	}

	switch c.Failure.Policy {
	case FailOpen, FailClosed:
		// valid
	default:
		return errors.New("Failure Policy is invalid")
	}

	if c.Local.MaxKeys < 0 {
		return errors.New("Local MaxKeys must be >= 0")
	}
	if c.Local.SweepInterval < 0 {
		return errors.New("Local SweepInterval must be >= 0")
	}

	for name, sc := range c.Scopes {
		if name == "" {
			return errors.New("Scopes must not contain an empty name")
		}
		if sc.Window < 0 {
			return errors.New("Scope Window must be >= 0")
		}
		if sc.MaxRequests < 0 {
			return errors.New("Scope MaxRequests must be >= 0")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}

// scopeWindow resolves a scope's effective window parameters against the
// root defaults.
func (c *Config) scopeWindow(sc ScopeConfig) WindowConfig {
	out := c.Window
	if sc.Window > 0 {
		out.Window = sc.Window
	}
	if sc.MaxRequests > 0 {
		out.MaxRequests = sc.MaxRequests
	}
	return out
}
