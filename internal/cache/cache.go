// Package cache holds the statistics cache (Redis, optional) and the
// in-process LRU used for place search responses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "where_smoking_cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"cache"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "where_smoking_cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"cache"})
)

// Store JSON 직렬화 기반 키-값 캐시
type Store interface {
	// Get decodes the cached value into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr atomically increments the integer stored at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
}

// Redis Store backed by go-redis
type Redis struct {
	rc     *redis.Client
	prefix string
}

// NewRedis opens a client. Connectivity is checked with Ping.
func NewRedis(addr, password string, db int, prefix string) *Redis {
	return &Redis{
		rc:     redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		prefix: prefix,
	}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rc.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rc.Close()
}

func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	s, err := r.rc.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		cacheMissesTotal.WithLabelValues("redis").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	cacheHitsTotal.WithLabelValues("redis").Inc()
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.rc.Set(ctx, r.key(key), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	if err := r.rc.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.rc.Incr(ctx, r.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return n, nil
}

// Noop Store used when REDIS_ADDR is not configured
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error { return nil }
func (Noop) Incr(context.Context, string) (int64, error) { return 0, nil }

// Local 프로세스 내 LRU 캐시 (TTL 만료)
type Local[V any] struct {
	name  string
	cache *expirable.LRU[string, V]
}

// NewLocal creates an LRU holding at most size entries for ttl each.
func NewLocal[V any](name string, size int, ttl time.Duration) *Local[V] {
	return &Local[V]{
		name:  name,
		cache: expirable.NewLRU[string, V](size, nil, ttl),
	}
}

func (l *Local[V]) Get(key string) (V, bool) {
	v, ok := l.cache.Get(key)
	if ok {
		cacheHitsTotal.WithLabelValues(l.name).Inc()
	} else {
		cacheMissesTotal.WithLabelValues(l.name).Inc()
	}
	return v, ok
}

func (l *Local[V]) Set(key string, v V) {
	l.cache.Add(key, v)
}

func (l *Local[V]) Len() int {
	return l.cache.Len()
}
