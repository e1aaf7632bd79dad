package utils

import (
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache 本地 LRU 缓存，条目带过期时间
type TTLCache[V any] struct {
	lru *lru.Cache[string, cacheItem[V]]
	now func() time.Time
}

func NewTTLCache[V any](size int) *TTLCache[V] {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		// only a non-positive size fails
		slog.Error("Failed to create LRU cache, falling back to size 1", "size", size, "error", err)
		l, _ = lru.New[string, cacheItem[V]](1)
	}
	return &TTLCache[V]{lru: l, now: time.Now}
}

func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.lru.Add(key, cacheItem[V]{value: value, expiresAt: c.now().Add(ttl)})
}

// Get 获取缓存，不存在或已过期时 ok 为 false
func (c *TTLCache[V]) Get(key string) (value V, ok bool) {
	item, found := c.lru.Get(key)
	if !found {
		return value, false
	}
	if c.now().After(item.expiresAt) {
		c.lru.Remove(key)
		return value, false
	}
	return item.value, true
}

func (c *TTLCache[V]) Delete(key string) {
	c.lru.Remove(key)
}

func (c *TTLCache[V]) Purge() {
	c.lru.Purge()
}
