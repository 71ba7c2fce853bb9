package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-memory implementation of Cache for development and
// tests. Entries are lazily expired on access.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	groups  map[string]map[string]struct{}
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		groups:  make(map[string]map[string]struct{}),
	}
}

// Get returns the value for key, or ErrMiss.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, ErrMiss
	}
	return entry.value, nil
}

// Set stores value under key with the given TTL.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// SetTagged stores value under key and records the key in group.
func (c *MemoryCache) SetTagged(_ context.Context, group, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	if c.groups[group] == nil {
		c.groups[group] = make(map[string]struct{})
	}
	c.groups[group][key] = struct{}{}
	return nil
}

// Delete removes a single key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// FlushGroup deletes every key recorded in group.
func (c *MemoryCache) FlushGroup(_ context.Context, group string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.groups[group] {
		delete(c.entries, key)
	}
	delete(c.groups, group)
	return nil
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
