package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var _ Store = (*RedisStore)(nil)

// hitScript checks, increments and arms the expiry in one round trip so that
// rejected requests never move the counter or the window.
// Returns {allowed, count, pttl}.
var hitScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local max = tonumber(ARGV[2])
if count >= max then
    return {0, count, redis.call('PTTL', KEYS[1])}
end
count = redis.call('INCR', KEYS[1])
if count == 1 or redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {1, count, redis.call('PTTL', KEYS[1])}
`)

// RedisStore keeps one counter per key with a TTL equal to the window, so the
// quota is shared by every process pointing at the same Redis. Window timing
// follows the Redis clock rather than the now passed to Hit.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "rate_limit:"}
}

func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration, max int) (Decision, error) {
	result, err := hitScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds(), max).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit script result %T", result)
	}
	allowed, _ := arr[0].(int64)
	count, _ := arr[1].(int64)
	pttl, _ := arr[2].(int64)
	if pttl < 0 {
		pttl = 0
	}
	if count > int64(max) {
		count = int64(max)
	}

	return Decision{
		Allowed: allowed == 1,
		Count:   int(count),
		Limit:   max,
		ResetAt: now.Add(time.Duration(pttl) * time.Millisecond),
	}, nil
}
