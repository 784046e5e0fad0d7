package window

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// takeSlidingScript atomically prunes, counts, and (when under budget)
// records. ARGV[1] carries now in unix millis as a string so the recorded
// member keeps full precision; scores are numeric millis. Members embed a
// per-call nonce: two admissions in the same millisecond must not collapse
// into one sorted-set entry.
const takeSlidingScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])
local n = tonumber(ARGV[5])
local nonce = ARGV[6]

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = tonumber(redis.call("ZCARD", key))

if count + n > limit then
  local retry = 0
  local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
  if oldest[2] then
    retry = tonumber(oldest[2]) + window - now
    if retry < 0 then retry = 0 end
  end
  local remaining = limit - count
  if remaining < 0 then remaining = 0 end
  return {0, remaining, retry}
end

for i = 1, n do
  redis.call("ZADD", key, now, ARGV[1] .. ":" .. nonce .. ":" .. i)
end
redis.call("EXPIRE", key, ttl)
return {1, limit - count - n, 0}
`

var takeSlidingLua = redis.NewScript(takeSlidingScript)

// Sliding is the Redis-backed sliding-window store.
type Sliding struct {
	redis redis.UniversalClient
}

// NewSliding creates a sliding-window [Store] backed by the given Redis client.
func NewSliding(client redis.UniversalClient) *Sliding {
	return &Sliding{redis: client}
}

// Take runs the admission script. One round-trip; nothing is written on
// rejection.
func (s *Sliding) Take(ctx context.Context, key string, now time.Time, window time.Duration, limit, n int) (Result, error) {
	nowMillis := now.UnixMilli()
	ttlSecs := int64(keyTTL(window) / time.Second)

	raw, err := takeSlidingLua.Run(ctx, s.redis, []string{key},
		strconv.FormatInt(nowMillis, 10),
		window.Milliseconds(),
		limit,
		ttlSecs,
		n,
		uuid.NewString(),
	).Result()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return decodeScriptResult(raw)
}

// Count prunes expired entries and reports the survivors. Not atomic with
// respect to Take; it is a read-mostly observability helper.
func (s *Sliding) Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, error) {
	windowStart := strconv.FormatInt(now.UnixMilli()-window.Milliseconds(), 10)

	pipe := s.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", windowStart)
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return int(card.Val()), nil
}

// Reset deletes all recorded state for key.
func (s *Sliding) Reset(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func decodeScriptResult(raw interface{}) (Result, error) {
	vals, ok := raw.([]interface{})
	if !ok || len(vals) != 3 {
		return Result{}, fmt.Errorf("%w: unexpected script reply %T", ErrUnavailable, raw)
	}

	allowed, ok0 := vals[0].(int64)
	remaining, ok1 := vals[1].(int64)
	retryMillis, ok2 := vals[2].(int64)
	if !ok0 || !ok1 || !ok2 {
		return Result{}, fmt.Errorf("%w: unexpected script reply shape", ErrUnavailable)
	}

	return Result{
		Allowed:    allowed == 1,
		Remaining:  int(remaining),
		RetryAfter: time.Duration(retryMillis) * time.Millisecond,
	}, nil
}
