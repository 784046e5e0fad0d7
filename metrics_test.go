package slidelimit

import (
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricAllowed)
	m.Observe(MetricCheckLatency, time.Millisecond)

	if m.Enabled() {
		t.Fatal("expected disabled metrics")
	}
	if m.Value(MetricAllowed) != 0 {
		t.Fatal("expected disabled metrics to record nothing")
	}

	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatal("expected empty snapshot when disabled")
	}
}

func TestMetricsCountersAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricAllowed)
	m.Inc(MetricAllowed)
	m.Inc(MetricDenied)

	if got := m.Value(MetricAllowed); got != 2 {
		t.Fatalf("Value(MetricAllowed) = %d, want 2", got)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricAllowed] != 2 || snap.Counters[MetricDenied] != 1 {
		t.Fatalf("unexpected snapshot counters: %v", snap.Counters)
	}
	if _, ok := snap.Histograms[MetricCheckLatency]; ok {
		t.Fatal("expected no histogram without latency enabled")
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricCheckLatency, 3*time.Millisecond)
	m.Observe(MetricCheckLatency, 30*time.Millisecond)
	m.Observe(MetricCheckLatency, 2*time.Second)

	buckets := m.Snapshot().Histograms[MetricCheckLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	if buckets[0] != 1 || buckets[3] != 1 || buckets[7] != 1 {
		t.Fatalf("samples landed in wrong buckets: %v", buckets)
	}

	// Only the latency metric carries a histogram.
	m.Observe(MetricAllowed, time.Millisecond)
	if got := m.Snapshot().Histograms[MetricCheckLatency]; got[0] != 1 {
		t.Fatalf("unrelated Observe mutated the latency histogram: %v", got)
	}
}

func TestMetricsNilReceiverSafe(t *testing.T) {
	var m *Metrics

	m.Inc(MetricAllowed)
	m.Observe(MetricCheckLatency, time.Millisecond)

	if m.Enabled() || m.LatencyEnabled() {
		t.Fatal("nil metrics must report disabled")
	}
	if m.Value(MetricAllowed) != 0 {
		t.Fatal("nil metrics must read zero")
	}
}
