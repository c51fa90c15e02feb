package cache

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

// MemoryCache implements Service on a size-bounded LRU. The LRU itself
// evicts after MaxTTL; shorter per-key expirations are checked on read.
type MemoryCache struct {
	lru    *expirable.LRU[string, memoryItem]
	maxTTL time.Duration
	now    func() time.Time
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize: 1000,
		MaxTTL:  24 * time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &MemoryCache{
		lru:    expirable.NewLRU[string, memoryItem](cfg.MaxSize, nil, cfg.MaxTTL),
		maxTTL: cfg.MaxTTL,
		now:    time.Now,
	}
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if expiration <= 0 || expiration > mc.maxTTL {
		expiration = mc.maxTTL
	}
	mc.lru.Add(key, memoryItem{data: data, expireAt: mc.now().Add(expiration)})
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	item, ok := mc.lru.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	if mc.now().After(item.expireAt) {
		mc.lru.Remove(key)
		return ErrCacheMiss
	}
	return json.Unmarshal(item.data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		mc.lru.Remove(k)
	}
	return nil
}

// DeleteByPattern removes keys matching a glob pattern (path.Match syntax,
// which covers the "prefix*" patterns used with Redis).
func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	for _, k := range mc.lru.Keys() {
		if ok, _ := path.Match(pattern, k); ok {
			mc.lru.Remove(k)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	now := mc.now()
	for _, k := range keys {
		if item, ok := mc.lru.Peek(k); ok && !now.After(item.expireAt) {
			return true, nil
		}
	}
	return false, nil
}

// Len returns the number of entries, expired ones included until evicted.
func (mc *MemoryCache) Len() int {
	return mc.lru.Len()
}

// Close purges the cache.
func (mc *MemoryCache) Close() error {
	mc.lru.Purge()
	return nil
}
