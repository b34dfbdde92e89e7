// Package throttle limits how often an action may be repeated for a key
// within a fixed window.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter reports whether another attempt for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed-window counter shared across processes.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

// NewRedisLimiter counts up to max attempts per window under prefix.
func NewRedisLimiter(client *redis.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, max: max, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + ":" + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("throttle incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("throttle expire: %w", err)
		}
	}
	return count <= int64(l.max), nil
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the single-process fallback used when no Redis is configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	windows map[string]*window
}

func NewMemoryLimiter(max int, win time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		window:  win,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// SetClock replaces the time source.
func (l *MemoryLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.window)}
		l.windows[key] = w
		l.sweep(now)
	}
	w.count++
	return w.count <= l.max, nil
}

// sweep drops expired windows so the map does not grow without bound.
func (l *MemoryLimiter) sweep(now time.Time) {
	if len(l.windows) < 1024 {
		return
	}
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}

// Unlimited allows everything.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }
