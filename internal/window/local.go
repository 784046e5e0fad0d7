package window

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultLocalMaxKeys  = 10000
	defaultSweepInterval = 5 * time.Minute
)

type localEntry struct {
	lim      *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// Local is an in-process token-bucket store. A window/limit pair maps to a
// bucket refilling at limit tokens per window with burst = limit, which
// keeps the at-most-limit-per-window property without any shared state.
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	maxKeys int
	sweep   time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewLocal creates an in-process [Store]. maxKeys bounds the tracked key
// map; sweepInterval controls the idle-key eviction loop. Zero values take
// defaults.
func NewLocal(maxKeys int, sweepInterval time.Duration) *Local {
	if maxKeys <= 0 {
		maxKeys = defaultLocalMaxKeys
	}
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	l := &Local{
		entries: make(map[string]*localEntry),
		maxKeys: maxKeys,
		sweep:   sweepInterval,
		done:    make(chan struct{}),
	}

	go l.run()

	return l
}

func (l *Local) run() {
	ticker := time.NewTicker(l.sweep)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			l.evictIdle(now)
		case <-l.done:
			return
		}
	}
}

// Take admits n requests from key's bucket at time now.
func (l *Local) Take(_ context.Context, key string, now time.Time, window time.Duration, limit, n int) (Result, error) {
	entry := l.entry(key, now, window, limit)

	res := entry.lim.ReserveN(now, n)
	if !res.OK() {
		// n exceeds the burst; this request can never succeed.
		return Result{Allowed: false, Remaining: remainingTokens(entry.lim, now), RetryAfter: window}, nil
	}

	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Result{Allowed: false, Remaining: remainingTokens(entry.lim, now), RetryAfter: delay}, nil
	}

	return Result{Allowed: true, Remaining: remainingTokens(entry.lim, now)}, nil
}

// Count reports how much of the budget is spent for key.
func (l *Local) Count(_ context.Context, key string, now time.Time, _ time.Duration) (int, error) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	l.mu.Unlock()
	if !ok {
		return 0, nil
	}

	return int(entry.lim.Burst()) - remainingTokens(entry.lim, now), nil
}

// Reset drops the bucket for key.
func (l *Local) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
	return nil
}

// Close stops the eviction loop.
func (l *Local) Close() {
	l.once.Do(func() {
		close(l.done)
	})
}

func (l *Local) entry(key string, now time.Time, window time.Duration, limit int) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= l.maxKeys {
			l.evictStalestLocked()
		}
		entry = &localEntry{
			lim:    rate.NewLimiter(rate.Limit(float64(limit)/window.Seconds()), limit),
			window: window,
		}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	return entry
}

func (l *Local) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > entry.window+l.sweep {
			delete(l.entries, key)
		}
	}
}

func (l *Local) evictStalestLocked() {
	var (
		stalest   string
		stalestAt time.Time
		found     bool
	)
	for key, entry := range l.entries {
		if !found || entry.lastSeen.Before(stalestAt) {
			stalest = key
			stalestAt = entry.lastSeen
			found = true
		}
	}
	if found {
		delete(l.entries, stalest)
	}
}

func remainingTokens(lim *rate.Limiter, now time.Time) int {
	tokens := lim.TokensAt(now)
	if tokens <= 0 {
		return 0
	}
	return int(math.Floor(tokens))
}
