// Package ratelimit enforces fixed-window counters such as the daily cap on
// issue reports per citizen.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one hit.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Limiter counts hits per key inside a fixed window.
type Limiter interface {
	Hit(ctx context.Context, key string) (Decision, error)
}

type redisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisLimiter counts with INCR and starts the window's TTL on the first hit.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) Limiter {
	return &redisLimiter{client: client, prefix: prefix, limit: int64(limit), window: window}
}

func (l *redisLimiter) Hit(ctx context.Context, key string) (Decision, error) {
	k := l.prefix + ":" + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return Decision{}, err
		}
	}
	if count <= l.limit {
		return Decision{Allowed: true, Count: count}, nil
	}
	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil {
		return Decision{}, err
	}
	if ttl < 0 {
		// key lost its expiry; restart the window
		_ = l.client.Expire(ctx, k, l.window).Err()
		ttl = l.window
	}
	return Decision{Allowed: false, Count: count, RetryAfter: ttl}, nil
}

type window struct {
	count   int64
	expires time.Time
}

type memoryLimiter struct {
	mu     sync.Mutex
	store  *cache.Cache
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewMemoryLimiter keeps counters in process; expired windows are evicted by
// the cache janitor.
func NewMemoryLimiter(limit int, window time.Duration) Limiter {
	return &memoryLimiter{
		store:  cache.New(window, window),
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

func (l *memoryLimiter) Hit(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := &window{expires: now.Add(l.window)}
	if v, ok := l.store.Get(key); ok {
		if existing := v.(*window); now.Before(existing.expires) {
			w = existing
		}
	}
	w.count++
	l.store.Set(key, w, w.expires.Sub(now))

	if w.count <= l.limit {
		return Decision{Allowed: true, Count: w.count}, nil
	}
	return Decision{Allowed: false, Count: w.count, RetryAfter: w.expires.Sub(now)}, nil
}
