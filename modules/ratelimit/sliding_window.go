// Package ratelimit throttles credential endpoints with a Redis sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/example/jobboard-auth/domain/ratelimit"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript drops entries older than the window, then either
// records ARGV[4] or reports how long until the oldest entry leaves.
// Reply: {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, now - window)
local used = redis.call('ZCARD', KEYS[1])

if used >= limit then
	local first = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
	local wait = window
	if first[2] then
		wait = tonumber(first[2]) + window - now
	end
	return {0, 0, wait}
end

redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return {1, limit - used - 1, 0}
`)

// SlidingWindowLimiter counts requests per key in a Redis sorted set scored
// by arrival time in milliseconds.
type SlidingWindowLimiter struct {
	client *redis.Client
	config ratelimit.Config
	prefix string
	now    func() time.Time
}

var _ ratelimit.Limiter = (*SlidingWindowLimiter)(nil)

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(client *redis.Client, config ratelimit.Config, prefix string) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		config: config,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow records a request for key and reports whether it fits the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*ratelimit.Result, error) {
	now := l.now()
	reply, err := slidingWindowScript.Run(ctx, l.client, []string{l.prefix + key},
		now.UnixMilli(),
		l.config.WindowSize.Milliseconds(),
		l.config.RequestsPerWindow,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script for %s: %w", key, err)
	}
	if len(reply) != 3 {
		return nil, fmt.Errorf("rate limit script for %s: got %d values, want 3", key, len(reply))
	}

	allowed, remaining, retryMs := reply[0] == 1, reply[1], reply[2]
	result := &ratelimit.Result{
		Allowed:   allowed,
		Remaining: int(remaining),
		ResetAt:   now.Add(l.config.WindowSize),
	}
	if !allowed && retryMs > 0 {
		result.RetryAfter = time.Duration(retryMs) * time.Millisecond
	}
	return result, nil
}

// Config returns the limiter's configuration.
func (l *SlidingWindowLimiter) Config() ratelimit.Config {
	return l.config
}
