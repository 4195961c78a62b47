package cache

import (
	"context"
	"sync"
	"time"

	"github.com/catalogbridge/migrator/internal/domain"
)

// cacheItem represents a single media entry with expiration
type cacheItem struct {
	Value      domain.Media
	Expiration time.Time
}

// MemoryCache is a thread-safe in-memory media cache with TTL support and a
// total byte budget. Entries that would exceed the budget are not stored.
type MemoryCache struct {
	data     map[string]cacheItem
	mutex    sync.RWMutex
	maxBytes int64
	bytes    int64
}

// NewMemoryCache creates a cache holding at most maxBytes of media
func NewMemoryCache(maxBytes int64) *MemoryCache {
	return &MemoryCache{
		data:     make(map[string]cacheItem),
		maxBytes: maxBytes,
	}
}

// Get retrieves media by URL
func (c *MemoryCache) Get(ctx context.Context, url string) (domain.Media, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[url]
	if !exists || time.Now().After(item.Expiration) {
		return domain.Media{}, domain.ErrCacheMiss
	}

	return item.Value, nil
}

// Set stores media under url with TTL
func (c *MemoryCache) Set(ctx context.Context, url string, media domain.Media, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	size := int64(len(media.Data))
	if old, ok := c.data[url]; ok {
		c.bytes -= int64(len(old.Value.Data))
		delete(c.data, url)
	}
	if c.bytes+size > c.maxBytes {
		c.evictExpired()
	}
	if c.bytes+size > c.maxBytes {
		return nil
	}

	c.data[url] = cacheItem{
		Value:      media,
		Expiration: time.Now().Add(ttl),
	}
	c.bytes += size

	return nil
}

// Delete removes media from the cache
func (c *MemoryCache) Delete(ctx context.Context, url string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if old, ok := c.data[url]; ok {
		c.bytes -= int64(len(old.Value.Data))
		delete(c.data, url)
	}
	return nil
}

// evictExpired must be called with the write lock held
func (c *MemoryCache) evictExpired() {
	now := time.Now()
	for key, item := range c.data {
		if now.After(item.Expiration) {
			c.bytes -= int64(len(item.Value.Data))
			delete(c.data, key)
		}
	}
}

// Size returns the current number of entries
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Bytes returns the total size of cached media
func (c *MemoryCache) Bytes() int64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.bytes
}

// Clear removes all entries
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
	c.bytes = 0
}
