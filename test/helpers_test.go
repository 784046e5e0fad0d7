//go:build integration
// +build integration

package test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	slidelimit "github.com/danieltikamori/slidelimit"
)

func newIntegrationLimiter(t *testing.T, cfg slidelimit.Config) (*slidelimit.Limiter, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter, err := slidelimit.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return limiter, mr, func() {
		limiter.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func windowConfig(window time.Duration, max int) slidelimit.Config {
	cfg := slidelimit.DefaultConfig()
	cfg.Window = slidelimit.WindowConfig{Window: window, MaxRequests: max}
	return cfg
}
