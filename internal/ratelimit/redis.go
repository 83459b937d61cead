package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// slidingWindowScript evicts, counts and optionally charges in one atomic
// step. Scores are Redis server time in microseconds so every process shares
// one clock.
//
// ARGV: window (µs), limit, member, charge (1 = Allow, 0 = Remaining)
// Returns {admitted, remaining}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local member = ARGV[3]
local charge = tonumber(ARGV[4])

local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000000 + tonumber(t[2])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if charge == 1 and count < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, math.ceil(window / 1000))
	return {1, limit - count - 1}
end

return {0, limit - count}
`)

// RedisWindow is a Limiter whose window lives in a Redis sorted set, so
// collectors in several worker processes draw from one quota.
//
// Redis errors deny the request: an unreachable store must not let
// collectors overrun the upstream quota.
type RedisWindow struct {
	redis       redis.Scripter
	key         string
	maxRequests int
	window      time.Duration
}

// NewRedisWindow creates a shared limiter stored under key.
func NewRedisWindow(client redis.Scripter, key string, maxRequests int, window time.Duration) (*RedisWindow, error) {
	if err := validate(maxRequests, window); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("%w: redis key must not be empty", ErrInvalidConfiguration)
	}

	return &RedisWindow{
		redis:       client,
		key:         key,
		maxRequests: maxRequests,
		window:      window,
	}, nil
}

// Allow implements Limiter.
func (w *RedisWindow) Allow(ctx context.Context) bool {
	admitted, _, err := w.run(ctx, true)
	if err != nil {
		log.Error().
			Err(err).
			Str("key", w.key).
			Msg("Redis rate limiter unavailable, denying request")
		return false
	}
	return admitted
}

// Remaining implements Limiter.
func (w *RedisWindow) Remaining(ctx context.Context) int {
	_, remaining, err := w.run(ctx, false)
	if err != nil {
		log.Warn().
			Err(err).
			Str("key", w.key).
			Msg("Failed to read remaining budget from Redis")
		return 0
	}
	return remaining
}

func (w *RedisWindow) run(ctx context.Context, charge bool) (bool, int, error) {
	chargeArg := 0
	if charge {
		chargeArg = 1
	}

	res, err := slidingWindowScript.Run(ctx, w.redis, []string{w.key},
		w.window.Microseconds(),
		w.maxRequests,
		uuid.NewString(),
		chargeArg,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("run sliding window script: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected sliding window reply: %v", res)
	}

	return res[0] == 1, int(res[1]), nil
}
