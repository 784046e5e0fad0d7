package window

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeFixedScript is the scripted form of the INCR + first-hit EXPIRE
// counter. The read happens before the increment so a rejected request
// leaves the counter untouched.
const takeFixedScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local n = tonumber(ARGV[3])

local count = tonumber(redis.call("GET", key) or "0")
if count + n > limit then
  local retry = redis.call("PTTL", key)
  if retry < 0 then retry = 0 end
  local remaining = limit - count
  if remaining < 0 then remaining = 0 end
  return {0, remaining, retry}
end

local newcount = redis.call("INCRBY", key, n)
if newcount == n then
  redis.call("PEXPIRE", key, window)
end
return {1, limit - newcount, 0}
`

var takeFixedLua = redis.NewScript(takeFixedScript)

// Fixed is the Redis-backed fixed-window counter store.
type Fixed struct {
	redis redis.UniversalClient
}

// NewFixed creates a fixed-window [Store] backed by the given Redis client.
func NewFixed(client redis.UniversalClient) *Fixed {
	return &Fixed{redis: client}
}

// Take runs the counter script. The window boundary is set by the first
// admitted request; now is accepted for interface symmetry only.
func (f *Fixed) Take(ctx context.Context, key string, _ time.Time, window time.Duration, limit, n int) (Result, error) {
	raw, err := takeFixedLua.Run(ctx, f.redis, []string{key},
		limit,
		window.Milliseconds(),
		n,
	).Result()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return decodeScriptResult(raw)
}

// Count reports the current window counter.
func (f *Fixed) Count(ctx context.Context, key string, _ time.Time, _ time.Duration) (int, error) {
	val, err := f.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric counter %q", ErrUnavailable, val)
	}
	return count, nil
}

// Reset deletes the window counter for key.
func (f *Fixed) Reset(ctx context.Context, key string) error {
	if err := f.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
