package test

import (
	"testing"
	"time"

	slidelimit "github.com/danieltikamori/slidelimit"
)

func TestDefaultConfigPresetValidates(t *testing.T) {
	cfg := slidelimit.DefaultConfig()

	if cfg.Strategy != slidelimit.StrategySliding {
		t.Fatalf("expected StrategySliding, got %v", cfg.Strategy)
	}
	if cfg.Failure.Policy != slidelimit.FailOpen {
		t.Fatalf("expected FailOpen, got %v", cfg.Failure.Policy)
	}
	if cfg.Window.MaxRequests <= 0 || cfg.Window.Window <= 0 {
		t.Fatal("expected a usable root window in the preset")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected preset to validate, got %v", err)
	}
}

func TestStrictConfigPresetValidates(t *testing.T) {
	cfg := slidelimit.StrictConfig()

	if cfg.Failure.Policy != slidelimit.FailClosed {
		t.Fatalf("expected FailClosed, got %v", cfg.Failure.Policy)
	}
	login, ok := cfg.Scopes["login"]
	if !ok {
		t.Fatal("expected a login scope in the strict preset")
	}
	if !login.EnableIdentifierThrottle || !login.EnableIPThrottle {
		t.Fatal("expected both throttle classes enabled for login")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected preset to validate, got %v", err)
	}
}

func TestHighThroughputConfigPresetValidates(t *testing.T) {
	cfg := slidelimit.HighThroughputConfig()

	if !cfg.Failure.LocalFallback {
		t.Fatal("expected the local fallback enabled for high throughput")
	}
	if cfg.Window.Window != time.Second {
		t.Fatalf("expected a one second window, got %v", cfg.Window.Window)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected preset to validate, got %v", err)
	}
}
