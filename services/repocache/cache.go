package repocache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bountyhub/pkg/logger"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repocache_hits_total",
		Help: "Cache lookups served from the store.",
	}, []string{"cache"})
	cacheMiss = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repocache_miss_total",
		Help: "Cache lookups that went to the loader.",
	}, []string{"cache"})
)

// IsExpired reports whether an entry stored at storedAt is stale at now.
// A non-positive ttl never expires.
func IsExpired(now, storedAt time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(storedAt) >= ttl
}

type entry[T any] struct {
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Cache keeps JSON encoded values in a Store and judges freshness with its own
// clock, so expiry does not depend on the store honouring TTLs.
type Cache[T any] struct {
	name  string
	store Store
	clock clockwork.Clock
	ttl   time.Duration
	group singleflight.Group
}

func New[T any](name string, store Store, clock clockwork.Clock, ttl time.Duration) *Cache[T] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache[T]{name: name, store: store, clock: clock, ttl: ttl}
}

// Get returns a fresh value for key. Stale or unreadable entries are removed
// and reported as a miss.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	raw, ok, err := c.store.Load(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return zero, false, nil
	}

	var e entry[T]
	if err := json.Unmarshal(raw, &e); err != nil || IsExpired(c.clock.Now(), e.StoredAt, c.ttl) {
		if err := c.store.Delete(ctx, key); err != nil {
			logger.FromContext(ctx).Warn("cache evict failed",
				zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		}
		return zero, false, nil
	}
	return e.Value, true, nil
}

func (c *Cache[T]) Set(ctx context.Context, key string, value T) error {
	raw, err := json.Marshal(entry[T]{Value: value, StoredAt: c.clock.Now()})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.store.Save(ctx, key, raw, c.ttl)
}

func (c *Cache[T]) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// GetOrLoad returns the cached value or calls load once per key, however many
// callers are waiting. A broken store degrades to calling load.
func (c *Cache[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	zapLog := logger.FromContext(ctx).With(zap.String("cache", c.name), zap.String("key", key))

	value, ok, err := c.Get(ctx, key)
	if err != nil {
		zapLog.Warn("cache read failed", zap.Error(err))
	}
	if ok {
		cacheHits.WithLabelValues(c.name).Inc()
		return value, nil
	}
	cacheMiss.WithLabelValues(c.name).Inc()

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, v); err != nil {
			zapLog.Warn("cache write failed", zap.Error(err))
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}
