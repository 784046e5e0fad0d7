package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	slidelimit "github.com/danieltikamori/slidelimit"
)

func main() {
	var (
		keys        = flag.Int("keys", 1024, "number of distinct rate-limit keys")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "admission checks per phase")
		window      = flag.Duration("window", time.Minute, "sliding window size")
		limit       = flag.Int("limit", 100, "max requests per key per window")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "sl", "store key prefix")
	)
	flag.Parse()

	if *keys <= 0 || *concurrency <= 0 || *ops <= 0 || *limit <= 0 {
		fmt.Fprintln(os.Stderr, "keys, concurrency, ops, and limit must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := slidelimit.DefaultConfig()
	cfg.KeyPrefix = *prefix
	cfg.Window = slidelimit.WindowConfig{Window: *window, MaxRequests: *limit}
	cfg.Metrics = slidelimit.MetricsConfig{Enabled: true, EnableLatencyHistograms: true}

	limiter, err := slidelimit.New().WithConfig(cfg).WithRedis(client).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer limiter.Close()

	names := make([]string, *keys)
	for i := range names {
		names[i] = fmt.Sprintf("key-%d", i)
	}

	hotStats := runPhase(ctx, limiter, names[:1], *ops, *concurrency)
	spreadStats := runPhase(ctx, limiter, names, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("hot-key", hotStats)
	printStats("spread", spreadStats)

	budget := int64(*limit)
	if hotStats.admitted > budget {
		fmt.Fprintf(os.Stderr, "hot key overshot its budget: admitted %d with limit %d\n", hotStats.admitted, budget)
		os.Exit(1)
	}
	fmt.Printf("hot key stayed within budget: admitted %d of limit %d\n", hotStats.admitted, budget)
}

func runPhase(ctx context.Context, limiter *slidelimit.Limiter, keys []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		admitted  int64
		denied    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				key := keys[r.Intn(len(keys))]
				t0 := time.Now()
				d, err := limiter.Allow(ctx, key)
				elapsed := time.Since(t0)
				switch {
				case err != nil:
					atomic.AddInt64(&failures, 1)
				case d.Allowed:
					atomic.AddInt64(&admitted, 1)
				default:
					atomic.AddInt64(&denied, 1)
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)

	return computeStats(total, latencies, admitted, denied, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	admitted int64
	denied   int64
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, admitted, denied, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		admitted: admitted,
		denied:   denied,
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d admitted=%d denied=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.admitted,
		s.denied,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
