// Package middleware holds cross-cutting guards applied before a
// connection reaches the protocol dispatcher.
package middleware

import (
    "context"
    "time"

    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/sahararesort/reservation/internal/config"
)

// ConnLimiter is a per-IP token bucket backed by redis, applied once per
// accepted TCP connection. The bucket state lives in a redis hash so the
// limit holds across server restarts and, if it ever comes to that,
// across multiple server processes. The limiter fails open: with no redis
// client configured, or on any redis error, connections are admitted.
type ConnLimiter struct {
    cfg    config.RateLimitConfig
    rdb    *redis.Client
    script *redis.Script
    log    *zap.Logger
}

// tokenBucketScript implements take-one-token atomically: refill by
// elapsed intervals, then either consume a token or report how long until
// the next one.
const tokenBucketScript = `
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
    tokens = capacity
    last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
    local elapsed = math.max(0, now_ms - last_refill)
    local intervals = math.floor(elapsed / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + (intervals * refill_tokens))
        last_refill = last_refill + (intervals * interval_ms)
    end
end

local allowed = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
end

redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return allowed
`

// NewConnLimiter builds a limiter. A nil redis client yields a limiter
// that admits everything.
func NewConnLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) *ConnLimiter {
    return &ConnLimiter{
        cfg:    cfg,
        rdb:    rdb,
        script: redis.NewScript(tokenBucketScript),
        log:    log,
    }
}

// Allow reports whether a new connection from the given IP may be served.
func (l *ConnLimiter) Allow(ctx context.Context, ip string) bool {
    if l.rdb == nil || ip == "" {
        return true
    }
    key := l.cfg.KeyPrefix + ":" + ip
    args := []interface{}{
        time.Now().UnixMilli(),
        l.cfg.Capacity,
        l.cfg.RefillTokens,
        l.cfg.RefillInterval.Milliseconds(),
        int64(l.cfg.TTL / time.Second),
    }
    allowed, err := l.script.Run(ctx, l.rdb, []string{key}, args...).Int()
    if err != nil {
        l.log.Debug("connection limiter redis error, admitting", zap.String("ip", ip), zap.Error(err))
        return true
    }
    return allowed == 1
}
