// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func exerciseLimiter(t *testing.T, l Limiter, c *clock) {
	t.Helper()
	ctx := context.Background()

	// Three per minute: one token every 20s
	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, retry, err := l.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, retry)

	// Other clients have their own bucket
	ok, _, err = l.Allow(ctx, "client-b")
	require.NoError(t, err)
	assert.True(t, ok)

	c.advance(15 * time.Second)
	ok, retry, err = l.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5*time.Second, retry)

	c.advance(5 * time.Second)
	ok, _, err = l.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = l.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiter(t *testing.T) {
	c := &clock{t: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(3, time.Minute)
	l.now = c.now

	exerciseLimiter(t, l, c)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	c := &clock{t: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(3, time.Minute)
	l.now = c.now

	_, _, _ = l.Allow(context.Background(), "k")
	l.sweep()
	assert.Len(t, l.buckets, 1)

	c.advance(time.Minute)
	l.sweep()
	assert.Empty(t, l.buckets)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c := &clock{t: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
	l := NewRedisLimiter(client, "login:", 3, time.Minute)
	l.now = c.now

	exerciseLimiter(t, l, c)

	assert.True(t, mr.Exists("login:client-a"))
	assert.Greater(t, mr.TTL("login:client-a"), time.Duration(0))
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	_, _, err := NewRedisLimiter(client, "login:", 3, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
}

type stubLimiter struct {
	allow bool
	retry time.Duration
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.retry, s.err
}

func TestRateLimit(t *testing.T) {
	testCases := []struct {
		name       string
		limiter    *stubLimiter
		wantStatus int
		wantRetry  string
	}{
		{"allowed", &stubLimiter{allow: true}, http.StatusOK, ""},
		{"blocked", &stubLimiter{allow: false, retry: 1500 * time.Millisecond}, http.StatusTooManyRequests, "2"},
		{"limiter down fails open", &stubLimiter{err: errors.New("redis down")}, http.StatusOK, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RateLimit(tc.limiter, "salt", false)(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("POST", "/login", nil)
			req.RemoteAddr = "203.0.113.9:5555"
			w := httptest.NewRecorder()
			handler(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantRetry, w.Header().Get("Retry-After"))
			require.Len(t, tc.limiter.keys, 1)
			assert.NotContains(t, tc.limiter.keys[0], "203.0.113.9", "raw IP must not be used as key")
		})
	}
}
