package slidelimit

import (
	"errors"
	"time"

	"github.com/danieltikamori/slidelimit/internal/audit"
	"github.com/danieltikamori/slidelimit/internal/throttle"
	"github.com/danieltikamori/slidelimit/internal/window"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Limiter]. Construction is allocation-only; no store
// I/O happens before the first admission call.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	auditSink Sink
	clock     func() time.Time
	built     bool
}

// New creates a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the backing store client. Required for [StrategySliding]
// and [StrategyFixed].
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the destination for audit events. Ignored unless
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink Sink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source. Test hook; production callers should
// leave the default.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// WithMetricsEnabled toggles metric recording.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the admission latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the [Limiter]. A Builder
// is single-use.
func (b *Builder) Build() (*Limiter, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil && cfg.Strategy != StrategyLocal {
		return nil, errors.New("strategy requires a redis client")
	}

	var store window.Store
	var local *window.Local

	switch cfg.Strategy {
	case StrategySliding:
		store = window.NewSliding(b.redis)
	case StrategyFixed:
		store = window.NewFixed(b.redis)
	case StrategyLocal:
		local = window.NewLocal(cfg.Local.MaxKeys, cfg.Local.SweepInterval)
		store = local
	}

	if cfg.Failure.LocalFallback && local == nil {
		local = window.NewLocal(cfg.Local.MaxKeys, cfg.Local.SweepInterval)
	}

	scopes := make(map[string]*throttle.Scoped, len(cfg.Scopes))
	for name, sc := range cfg.Scopes {
		wc := cfg.scopeWindow(sc)
		scopes[name] = throttle.NewScoped(store, throttle.Config{
			Prefix:                   cfg.KeyPrefix,
			Scope:                    name,
			Window:                   wc.Window,
			MaxRequests:              wc.MaxRequests,
			EnableIdentifierThrottle: sc.EnableIdentifierThrottle,
			EnableIPThrottle:         sc.EnableIPThrottle,
		})
	}

	var dispatcher *audit.Dispatcher
	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = NoOpSink{}
		}
		dispatcher = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sinkBridge{sink: sink})
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	b.built = true

	return &Limiter{
		config:  cfg,
		store:   store,
		local:   local,
		scopes:  scopes,
		audit:   dispatcher,
		metrics: NewMetrics(cfg.Metrics),
		now:     clock,
	}, nil
}
