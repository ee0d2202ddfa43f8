// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"sync"
	"time"
)

// TypeCache caches resolved type descriptors keyed by type URL.
// Implementations must be safe for concurrent access.
type TypeCache interface {
	// Get returns the descriptor and true if present and not expired
	Get(typeURL string) (MetasysObjectType, bool)

	// Set stores a descriptor
	Set(typeURL string, descriptor MetasysObjectType)
}

type cacheEntry struct {
	descriptor MetasysObjectType
	expiresAt  time.Time
}

// MemoryCache is an in-memory TypeCache with a fixed TTL.
// A TTL of zero or less keeps entries forever.
type MemoryCache struct {
	ttl     time.Duration
	entries map[string]cacheEntry
	mu      sync.RWMutex
}

// NewMemoryCache creates an empty MemoryCache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get retrieves a descriptor, dropping it if expired
func (c *MemoryCache) Get(typeURL string) (MetasysObjectType, bool) {
	c.mu.RLock()
	entry, ok := c.entries[typeURL]
	c.mu.RUnlock()

	if !ok {
		return MetasysObjectType{}, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, typeURL)
		c.mu.Unlock()
		return MetasysObjectType{}, false
	}
	return entry.descriptor, true
}

// Set stores a descriptor
func (c *MemoryCache) Set(typeURL string, descriptor MetasysObjectType) {
	entry := cacheEntry{descriptor: descriptor}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[typeURL] = entry
	c.mu.Unlock()
}

// Len returns the number of entries, including expired ones
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
