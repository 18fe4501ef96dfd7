// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rafaelconde1/aplicativo-novo/auth"
)

// Limiter is a token bucket keyed by client
type Limiter interface {
	// Allow takes one token for key. When none is left it reports how long
	// until the next one.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimit answers 429 once a client has used up its bucket. Clients are
// keyed by a salted hash of their IP. Limiter errors let the request through.
func RateLimit(l Limiter, salt string, trustProxy bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := auth.HashIP(GetClientIP(r, trustProxy), salt)

			allowed, retry, err := l.Allow(r.Context(), key)
			if err != nil {
				slog.Warn("rate limiter unavailable", "error", err)
				next(w, r)
				return
			}
			if !allowed {
				secs := int(math.Ceil(retry.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				ErrorResponse(w, http.StatusTooManyRequests, fmt.Sprintf("Too many attempts, try again in %d seconds", secs))
				return
			}

			next(w, r)
		}
	}
}

// MemoryLimiter keeps buckets in process memory
type MemoryLimiter struct {
	capacity int
	interval time.Duration // time to refill one token
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewMemoryLimiter allows capacity requests per window, refilled evenly
func NewMemoryLimiter(capacity int, window time.Duration) *MemoryLimiter {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryLimiter{
		capacity: capacity,
		interval: window / time.Duration(capacity),
		now:      time.Now,
		buckets:  make(map[string]*bucket),
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: m.capacity, lastRefill: now}
		m.buckets[key] = b
	}

	if m.interval > 0 {
		if n := int(now.Sub(b.lastRefill) / m.interval); n > 0 {
			b.tokens = min(m.capacity, b.tokens+n)
			b.lastRefill = b.lastRefill.Add(time.Duration(n) * m.interval)
		}
	}

	if b.tokens > 0 {
		b.tokens--
		return true, 0, nil
	}
	return false, m.interval - now.Sub(b.lastRefill), nil
}

// Full buckets carry no state, so they can be dropped
func (m *MemoryLimiter) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, b := range m.buckets {
		if now.Sub(b.lastRefill) >= time.Duration(m.capacity)*m.interval {
			delete(m.buckets, key)
		}
	}
}

// StartSweeper drops idle buckets every interval until ctx is done
func (m *MemoryLimiter) StartSweeper(ctx context.Context, every time.Duration) {
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.sweep()
			}
		}
	}()
}

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
    tokens = capacity
    last_refill = now_ms
end

if interval_ms > 0 then
    local elapsed = math.max(0, now_ms - last_refill)
    local intervals = math.floor(elapsed / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + intervals)
        last_refill = last_refill + (intervals * interval_ms)
    end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, retry_after_ms }
`)

// RedisLimiter shares buckets between instances through redis
type RedisLimiter struct {
	client   redis.Scripter
	prefix   string
	capacity int
	interval time.Duration
	now      func() time.Time
}

func NewRedisLimiter(client redis.Scripter, prefix string, capacity int, window time.Duration) *RedisLimiter {
	if capacity < 1 {
		capacity = 1
	}
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		capacity: capacity,
		interval: window / time.Duration(capacity),
		now:      time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	ttl := int64(math.Ceil((time.Duration(l.capacity) * l.interval).Seconds()))
	if ttl < 1 {
		ttl = 1
	}

	vals, err := tokenBucketScript.Run(ctx, l.client, []string{l.prefix + key},
		l.now().UnixMilli(),
		l.capacity,
		l.interval.Milliseconds(),
		ttl,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 2 {
		return false, 0, fmt.Errorf("rate limit script: unexpected result %v", vals)
	}

	return vals[0] == 1, time.Duration(vals[1]) * time.Millisecond, nil
}
