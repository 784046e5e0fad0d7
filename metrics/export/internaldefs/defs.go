package internaldefs

import (
	slidelimit "github.com/danieltikamori/slidelimit"
)

// CounterDef binds a core counter ID to its exported metric name.
type CounterDef struct {
	ID   slidelimit.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram ID to its exported metric name.
type HistogramDef struct {
	ID   slidelimit.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter exposed by the exporters, in a stable order.
var CounterDefs = []CounterDef{
	{ID: slidelimit.MetricAllowed, Name: "slidelimit_allowed_total", Help: "Admitted requests."},
	{ID: slidelimit.MetricDenied, Name: "slidelimit_denied_total", Help: "Rejected requests."},
	{ID: slidelimit.MetricScopeDenied, Name: "slidelimit_scope_denied_total", Help: "Rejections by named scope limiters."},
	{ID: slidelimit.MetricStoreFailure, Name: "slidelimit_store_failure_total", Help: "Store round-trips that errored."},
	{ID: slidelimit.MetricFailOpenAllowed, Name: "slidelimit_fail_open_allowed_total", Help: "Requests admitted by fail-open policy while the store was down."},
	{ID: slidelimit.MetricFailClosedDenied, Name: "slidelimit_fail_closed_denied_total", Help: "Requests rejected by fail-closed policy while the store was down."},
	{ID: slidelimit.MetricLocalFallback, Name: "slidelimit_local_fallback_total", Help: "Decisions taken by the in-process fallback bucket."},
	{ID: slidelimit.MetricReset, Name: "slidelimit_reset_total", Help: "Explicit key resets."},
}

// HistogramDefs lists every histogram exposed by the exporters.
var HistogramDefs = []HistogramDef{
	{ID: slidelimit.MetricCheckLatency, Name: "slidelimit_check_latency_seconds", Help: "Admission round-trip latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus "le"
// label form.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with OTel-safe instrument
// name suffixes.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice into the fixed
// bucket array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form both
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
