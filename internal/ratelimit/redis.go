package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims entries older than the window, then admits the attempt
// only if the remaining count is below the rate.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
if redis.call('ZCARD', key) >= rate then
	return 0
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window_ms)
return 1
`)

// RedisLimiter shares attempt counts between instances through Redis.
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	rate      int
	window    time.Duration
	now       func() time.Time
}

// RedisConfig holds Redis limiter configuration.
type RedisConfig struct {
	Client    redis.Cmdable
	KeyPrefix string // defaults to "ratelimit:"
	Rate      int
	Window    time.Duration
}

func NewRedisLimiter(cfg RedisConfig) *RedisLimiter {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisLimiter{
		client:    cfg.Client,
		keyPrefix: prefix,
		rate:      cfg.Rate,
		window:    cfg.Window,
		now:       time.Now,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := r.now()
	result, err := slidingWindow.Run(ctx, r.client, []string{r.keyPrefix + key},
		now.Add(-r.window).UnixMicro(),
		now.UnixMicro(),
		r.rate,
		r.window.Milliseconds(),
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	return result == 1, nil
}

// Close is a no-op; the client is owned by the caller.
func (r *RedisLimiter) Close() error {
	return nil
}

var _ Limiter = (*RedisLimiter)(nil)
