//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	slidelimit "github.com/danieltikamori/slidelimit"
)

// The wire format is load-bearing: operators inspect these keys and other
// language clients may share the same buckets. Key layout and TTLs are
// asserted here so accidental changes fail loudly.

func TestSlidingKeysAreSortedSetsWithSecondTTL(t *testing.T) {
	limiter, mr, cleanup := newIntegrationLimiter(t, windowConfig(30*time.Second, 10))
	defer cleanup()

	if _, err := limiter.Allow(context.Background(), "client-1"); err != nil {
		t.Fatalf("Allow failed: %v", err)
	}

	key := "sl:w:client-1"
	if !mr.Exists(key) {
		t.Fatalf("expected key %q to exist", key)
	}
	if ttl := mr.TTL(key); ttl != 31*time.Second {
		t.Fatalf("TTL = %v, want window seconds + 1", ttl)
	}

	members, err := mr.ZMembers(key)
	if err != nil {
		t.Fatalf("expected a sorted set at %q: %v", key, err)
	}
	if len(members) != 1 {
		t.Fatalf("recorded %d members, want 1", len(members))
	}
}

func TestIdleKeysDisappearFromRedis(t *testing.T) {
	limiter, mr, cleanup := newIntegrationLimiter(t, windowConfig(30*time.Second, 10))
	defer cleanup()

	if _, err := limiter.Allow(context.Background(), "idle"); err != nil {
		t.Fatalf("Allow failed: %v", err)
	}

	mr.FastForward(32 * time.Second)

	if mr.Exists("sl:w:idle") {
		t.Fatal("expected the idle key to expire")
	}
}

func TestScopeKeyLayout(t *testing.T) {
	cfg := windowConfig(time.Minute, 100)
	cfg.Scopes = map[string]slidelimit.ScopeConfig{
		"login": {
			MaxRequests:              5,
			EnableIdentifierThrottle: true,
			EnableIPThrottle:         true,
		},
	}

	limiter, mr, cleanup := newIntegrationLimiter(t, cfg)
	defer cleanup()

	scoped, err := limiter.Scope("login")
	if err != nil {
		t.Fatalf("Scope failed: %v", err)
	}
	if err := scoped.Enforce(context.Background(), "t1", "alice", "203.0.113.7"); err != nil {
		t.Fatalf("Enforce failed: %v", err)
	}

	for _, key := range []string{"sl:login:id:t1:alice", "sl:login:ip:t1:203.0.113.7"} {
		if !mr.Exists(key) {
			t.Fatalf("expected scope key %q to exist", key)
		}
	}
}

func TestCustomKeyPrefixIsHonored(t *testing.T) {
	cfg := windowConfig(time.Minute, 10)
	cfg.KeyPrefix = "svc"

	limiter, mr, cleanup := newIntegrationLimiter(t, cfg)
	defer cleanup()

	if _, err := limiter.Allow(context.Background(), "k"); err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !mr.Exists("svc:w:k") {
		t.Fatal("expected the configured prefix in the store key")
	}
}
