package window

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newWindowRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestSlidingTakeAdmitsUpToLimit(t *testing.T) {
	_, client := newWindowRedis(t)
	store := NewSliding(client)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 3; i++ {
		res, err := store.Take(ctx, "w", now, time.Minute, 3, 1)
		if err != nil {
			t.Fatalf("Take %d failed: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("Take %d rejected, want admission", i)
		}
		if want := 3 - i - 1; res.Remaining != want {
			t.Fatalf("Take %d Remaining = %d, want %d", i, res.Remaining, want)
		}
	}

	res, err := store.Take(ctx, "w", now, time.Minute, 3, 1)
	if err != nil {
		t.Fatalf("Take over budget failed: %v", err)
	}
	if res.Allowed {
		t.Fatal("fourth take admitted, want rejection")
	}
}

func TestSlidingSameMillisecondEntriesStayDistinct(t *testing.T) {
	mr, client := newWindowRedis(t)
	store := NewSliding(client)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	// Identical timestamps must still record one member per admission.
	for i := 0; i < 5; i++ {
		if _, err := store.Take(ctx, "burst", now, time.Minute, 10, 1); err != nil {
			t.Fatalf("Take %d failed: %v", i, err)
		}
	}

	members, err := mr.ZMembers("burst")
	if err != nil {
		t.Fatalf("ZMembers failed: %v", err)
	}
	if len(members) != 5 {
		t.Fatalf("recorded %d members, want 5", len(members))
	}
}

func TestSlidingRejectionRecordsNothing(t *testing.T) {
	mr, client := newWindowRedis(t)
	store := NewSliding(client)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	if _, err := store.Take(ctx, "r", now, time.Minute, 1, 1); err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	res, err := store.Take(ctx, "r", now.Add(time.Second), time.Minute, 1, 1)
	if err != nil {
		t.Fatalf("second Take failed: %v", err)
	}
	if res.Allowed {
		t.Fatal("expected rejection")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("RetryAfter = %v, want within (0, window]", res.RetryAfter)
	}

	members, err := mr.ZMembers("r")
	if err != nil {
		t.Fatalf("ZMembers failed: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("rejection recorded a member: %v", members)
	}
}

func TestSlidingPrunesExpiredEntriesOnTake(t *testing.T) {
	_, client := newWindowRedis(t)
	store := NewSliding(client)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 2; i++ {
		if _, err := store.Take(ctx, "p", now, time.Minute, 2, 1); err != nil {
			t.Fatalf("Take failed: %v", err)
		}
	}

	// Both entries age out; the budget is whole again.
	res, err := store.Take(ctx, "p", now.Add(time.Minute+time.Millisecond), time.Minute, 2, 1)
	if err != nil {
		t.Fatalf("Take after expiry failed: %v", err)
	}
	if !res.Allowed || res.Remaining != 1 {
		t.Fatalf("got Allowed=%v Remaining=%d, want admitted with 1 remaining", res.Allowed, res.Remaining)
	}
}

func TestSlidingSetsKeyTTL(t *testing.T) {
	mr, client := newWindowRedis(t)
	store := NewSliding(client)

	if _, err := store.Take(context.Background(), "ttl", time.UnixMilli(1_700_000_000_000), 30*time.Second, 5, 1); err != nil {
		t.Fatalf("Take failed: %v", err)
	}

	ttl := mr.TTL("ttl")
	if ttl != 31*time.Second {
		t.Fatalf("TTL = %v, want 31s", ttl)
	}
}

func TestSlidingCountPrunesAndCounts(t *testing.T) {
	_, client := newWindowRedis(t)
	store := NewSliding(client)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 3; i++ {
		if _, err := store.Take(ctx, "c", now.Add(time.Duration(i)*10*time.Second), time.Minute, 10, 1); err != nil {
			t.Fatalf("Take failed: %v", err)
		}
	}

	count, err := store.Count(ctx, "c", now.Add(65*time.Second), time.Minute)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	// The t+0 entry fell out of the window at t+65s.
	if count != 2 {
		t.Fatalf("Count = %d, want 2", count)
	}
}

func TestSlidingResetDeletesKey(t *testing.T) {
	mr, client := newWindowRedis(t)
	store := NewSliding(client)
	ctx := context.Background()

	if _, err := store.Take(ctx, "z", time.UnixMilli(1_700_000_000_000), time.Minute, 1, 1); err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if err := store.Reset(ctx, "z"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if mr.Exists("z") {
		t.Fatal("key survived Reset")
	}
}

func TestSlidingReportsUnavailableStore(t *testing.T) {
	mr, client := newWindowRedis(t)
	store := NewSliding(client)
	mr.Close()

	_, err := store.Take(context.Background(), "down", time.Now(), time.Minute, 1, 1)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
