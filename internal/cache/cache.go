package cache

import (
	"sync"
	"time"
)

// Entry holds a cached value with expiration
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
	FetchedAt time.Time
}

// IsExpired returns true if the entry has expired at now
func (e *Entry[V]) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache is a thread-safe TTL cache. Every entry shares the same TTL.
type Cache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*Entry[V]
}

// New creates a cache whose entries live for ttl. A non-positive ttl
// disables caching.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*Entry[V]),
	}
}

// Get retrieves a live value
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || entry.IsExpired(c.now()) {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Set stores a value for the cache TTL
func (c *Cache[V]) Set(key string, value V) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &Entry[V]{
		Value:     value,
		ExpiresAt: now.Add(c.ttl),
		FetchedAt: now,
	}
}

// Delete removes an entry from cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Retain drops every entry whose key is not in keep
func (c *Cache[V]) Retain(keep map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if !keep[k] {
			delete(c.entries, k)
		}
	}
}

// Len counts entries, expired ones included
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries
func (c *Cache[V]) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, v := range c.entries {
		if v.IsExpired(now) {
			delete(c.entries, k)
		}
	}
}
