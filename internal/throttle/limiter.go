package throttle

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Result describes the state of a key's current window.
type Result struct {
	Allowed    bool
	Hits       int64
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter counts attempts per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func windowKey(prefix, key string, window time.Duration, now time.Time) (string, time.Time) {
	start := now.Truncate(window)
	return fmt.Sprintf("%s%s:%d", prefix, strings.ReplaceAll(key, " ", "_"), start.Unix()), start.Add(window)
}

func result(hits, max int64, retryAfter time.Duration) Result {
	remaining := max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{Allowed: hits <= max, Hits: hits, Remaining: remaining}
	if !res.Allowed {
		res.RetryAfter = retryAfter
	}
	return res
}

// RedisLimiter is a fixed window limiter built on INCR + EXPIRE.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter builds a limiter allowing max attempts per window.
func NewRedisLimiter(client *redis.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window, now: time.Now}
}

// Allow records one attempt for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey, _ := windowKey(l.prefix, key, l.window, l.now().UTC())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	retryAfter := ttl.Val()
	if incr.Val() == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, err
		}
		retryAfter = l.window
	}
	if retryAfter <= 0 {
		retryAfter = l.window
	}
	return result(incr.Val(), l.max, retryAfter), nil
}

// MemoryLimiter is the in-process fallback used when Redis is disabled. Counts
// are not shared between replicas.
type MemoryLimiter struct {
	cache  *gocache.Cache
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

// NewMemoryLimiter builds a limiter allowing max attempts per window.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		cache:  gocache.New(window, window),
		prefix: "rl:",
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

// Allow records one attempt for key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	cacheKey, resetAt := windowKey(l.prefix, key, l.window, now)

	_ = l.cache.Add(cacheKey, int64(0), resetAt.Sub(now))
	hits, err := l.cache.IncrementInt64(cacheKey, 1)
	if err != nil {
		return Result{}, err
	}
	return result(hits, l.max, resetAt.Sub(now)), nil
}

// Disabled allows every attempt.
type Disabled struct{}

// Allow always succeeds.
func (Disabled) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true}, nil
}
