package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Counter is the pluggable fixed-window counter behind the rate limiter, so
// a different distributed store can be substituted without touching the
// check-in or vote paths.
type Counter interface {
	// Incr bumps the counter for key if it is below limit, returning the
	// count before the bump, whether the bump was allowed, and the time
	// until the window resets.
	Incr(ctx context.Context, key string, limit int, window time.Duration) (count int64, allowed bool, resetIn time.Duration, err error)
}

// RateLimitConfig contains per-category limits, all over a one-minute
// fixed window.
type RateLimitConfig struct {
	CheckinLimit int
	VoteLimit    int
	AuthLimit    int
	Window       time.Duration
}

// DefaultRateLimitConfig sizes limits for a campus-WiFi crowd behind shared
// NAT addresses.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		CheckinLimit: 200,
		VoteLimit:    200,
		AuthLimit:    5,
		Window:       60 * time.Second,
	}
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

// RateLimiter applies per-IP fixed-window limits through a Counter.
type RateLimiter struct {
	counter Counter
	config  RateLimitConfig
}

func NewRateLimiter(counter Counter, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{counter: counter, config: config}
}

// AllowCheckin checks whether an IP may attempt a check-in.
func (r *RateLimiter) AllowCheckin(ctx context.Context, ip string) (*RateLimitResult, error) {
	return r.check(ctx, fmt.Sprintf("ratelimit:%s:checkin", ip), r.config.CheckinLimit)
}

// AllowVote checks whether an IP may submit a vote.
func (r *RateLimiter) AllowVote(ctx context.Context, ip string) (*RateLimitResult, error) {
	return r.check(ctx, fmt.Sprintf("ratelimit:%s:vote", ip), r.config.VoteLimit)
}

// AllowAuth checks whether an IP may attempt an admin login.
func (r *RateLimiter) AllowAuth(ctx context.Context, ip string) (*RateLimitResult, error) {
	return r.check(ctx, fmt.Sprintf("ratelimit:%s:auth", ip), r.config.AuthLimit)
}

func (r *RateLimiter) check(ctx context.Context, key string, limit int) (*RateLimitResult, error) {
	count, allowed, resetIn, err := r.counter.Incr(ctx, key, limit, r.config.Window)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	remaining := limit - int(count) - 1
	if !allowed || remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{
		Allowed:   allowed,
		Remaining: remaining,
		ResetIn:   resetIn,
		Limit:     limit,
	}, nil
}

// RedisCounter is the production Counter: one atomic Lua script per check.
type RedisCounter struct {
	client *goredis.Client
}

func NewRedisCounter(client *goredis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

var incrScript = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		current = 0
	else
		current = tonumber(current)
	end

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current < limit then
		redis.call('INCR', key)
		if ttl == window then
			redis.call('EXPIRE', key, window)
		end
		return {current, 1, ttl}
	else
		return {current, 0, ttl}
	end
`)

func (c *RedisCounter) Incr(ctx context.Context, key string, limit int, window time.Duration) (int64, bool, time.Duration, error) {
	result, err := incrScript.Run(ctx, c.client, []string{key}, limit, int(window.Seconds())).Result()
	if err != nil {
		return 0, false, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 3 {
		return 0, false, 0, fmt.Errorf("unexpected rate limit result format")
	}
	count := values[0].(int64)
	allowed := values[1].(int64) == 1
	resetIn := time.Duration(values[2].(int64)) * time.Second
	return count, allowed, resetIn, nil
}
