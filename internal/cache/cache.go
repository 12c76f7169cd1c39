// Package cache provides the short-lived response cache used by the
// upstream clients to honor per-endpoint revalidation windows.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kofin/finboard/internal/common"
)

// Cache stores raw response payloads under string keys with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

// New returns a Redis-backed cache when an address is configured and
// reachable, otherwise an in-process memory cache. A shared Redis lets
// several replicas stay within upstream rate limits together; the memory
// cache is the single-node default.
func New(cfg common.CacheConfig, logger *common.Logger) Cache {
	if cfg.Address == "" {
		return NewMemory()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("address", cfg.Address).
			Msg("Redis unreachable, falling back to memory cache")
		return NewMemory()
	}

	logger.Info().Str("address", cfg.Address).Msg("Using Redis response cache")
	return &Redis{client: client, logger: logger}
}

// Redis is a Cache backed by a shared Redis instance.
type Redis struct {
	client *redis.Client
	logger *common.Logger
}

// Get retrieves a cached payload.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// Set stores a payload. Write failures are logged and otherwise ignored —
// the cache is an optimization, never a source of truth.
func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Memory is an in-process Cache with lazy expiry.
type Memory struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

type memItem struct {
	val []byte
	exp time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memItem), now: time.Now}
}

// Get retrieves a cached payload, dropping it if expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !it.exp.IsZero() && m.now().After(it.exp) {
		delete(m.items, key)
		return nil, false
	}
	return it.val, true
}

// Set stores a payload with the given TTL. A non-positive TTL stores the
// entry without expiry.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.items[key] = memItem{val: val, exp: exp}
}
