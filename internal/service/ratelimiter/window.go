// Package ratelimiter caps outbound generation calls with a sliding window
// kept in redis, so every server replica draws from the same budget.
package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether cost units of work under key may start now.
type Limiter interface {
	Allow(ctx context.Context, key string, cost int64) (allowed bool, retryAfter time.Duration, err error)
}

// Window admits at most Limit units in any trailing Period.
type Window struct {
	Limit  int64
	Period time.Duration
}

// PerMinute is a one-minute window of n calls. n <= 0 disables limiting.
func PerMinute(n int) Window {
	if n <= 0 {
		return Window{}
	}
	return Window{Limit: int64(n), Period: time.Minute}
}

func (w Window) enabled() bool { return w.Limit > 0 && w.Period > 0 }

// keyPrefix namespaces limiter state in a redis shared with the OCR job queue.
const keyPrefix = "intake:ratelimit:"

// slidingWindowScript keeps one sorted-set member per admitted unit, scored by
// admission time in milliseconds. It returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local period = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local member = ARGV[5]

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - period)
local used = redis.call("ZCARD", key)

if used + cost <= limit then
  for i = 1, cost do
    redis.call("ZADD", key, now, member .. ":" .. i)
  end
  redis.call("PEXPIRE", key, period)
  return {1, limit - used - cost, 0}
end

local retry = period
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] then
  retry = tonumber(oldest[2]) + period - now
end
if retry < 0 then
  retry = 0
end
return {0, limit - used, retry}
`)

// RedisWindowLimiter applies one window to every key. A nil
// *RedisWindowLimiter admits everything.
type RedisWindowLimiter struct {
	rdb    redis.Scripter
	now    func() time.Time
	window Window
}

// NewRedisWindowLimiter returns nil when rdb is nil.
func NewRedisWindowLimiter(rdb redis.Scripter, w Window) *RedisWindowLimiter {
	if rdb == nil {
		return nil
	}
	return &RedisWindowLimiter{rdb: rdb, now: time.Now, window: w}
}

// Allow records cost units against key when they fit in the window. While
// redis is unreachable every call is admitted and the error is returned for
// the caller to log.
func (l *RedisWindowLimiter) Allow(ctx context.Context, key string, cost int64) (bool, time.Duration, error) {
	if l == nil {
		return true, 0, nil
	}
	w := l.window
	if !w.enabled() {
		return true, 0, nil
	}
	if cost <= 0 {
		cost = 1
	}
	if cost > w.Limit {
		return false, 0, fmt.Errorf("op=ratelimiter.allow: cost %d exceeds window limit %d for %q", cost, w.Limit, key)
	}

	now := l.now()
	res, err := slidingWindowScript.Run(ctx, l.rdb, []string{keyPrefix + key},
		now.UnixMilli(), w.Period.Milliseconds(), w.Limit, cost, ulid.Make().String()).Int64Slice()
	if err != nil {
		return true, 0, fmt.Errorf("op=ratelimiter.allow: %w", err)
	}
	if len(res) != 3 {
		slog.Error("rate limiter script returned unexpected result", slog.String("key", key), slog.Any("result", res))
		return true, 0, nil
	}
	if res[0] == 1 {
		return true, 0, nil
	}
	retryAfter := time.Duration(res[2]) * time.Millisecond
	slog.Debug("rate limit window full",
		slog.String("key", key),
		slog.Int64("limit", w.Limit),
		slog.Duration("retry_after", retryAfter))
	return false, retryAfter, nil
}
