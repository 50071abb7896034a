package arx

import (
	"sync"
	"time"
)

// CacheConfig configures the parsed-document cache.
type CacheConfig struct {
	// TTL is how long a parsed document stays valid. Zero means no expiry.
	// Default: 5 minutes
	TTL time.Duration

	// MaxEntries bounds the cache size; the oldest entry is evicted first.
	// Zero means unlimited.
	// Default: 1000
	MaxEntries int
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        DefaultCacheTTL,
		MaxEntries: DefaultCacheMaxEntries,
	}
}

// documentCacheEntry keeps the source text so that a changed document
// under the same identity is reparsed
type documentCacheEntry struct {
	doc      *Document
	content  string
	cachedAt time.Time
}

// DocumentCache caches parsed documents by identity. It is safe for
// concurrent use.
type DocumentCache struct {
	config  CacheConfig
	mu      sync.RWMutex
	entries map[string]*documentCacheEntry
	now     func() time.Time
}

// NewDocumentCache creates an empty cache
func NewDocumentCache(config CacheConfig) *DocumentCache {
	return &DocumentCache{
		config:  config,
		entries: make(map[string]*documentCacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached document for id if it was parsed from content
// and has not expired
func (c *DocumentCache) Get(id, content string) (*Document, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok || entry.content != content {
		return nil, false
	}
	if c.config.TTL > 0 && c.now().Sub(entry.cachedAt) > c.config.TTL {
		c.mu.Lock()
		if current, ok := c.entries[id]; ok && current == entry {
			delete(c.entries, id)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.doc, true
}

// Put stores a parsed document, evicting the oldest entry when full
func (c *DocumentCache) Put(id, content string, doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[id]; !exists && c.config.MaxEntries > 0 && len(c.entries) >= c.config.MaxEntries {
		c.evictOldestLocked()
	}
	c.entries[id] = &documentCacheEntry{doc: doc, content: content, cachedAt: c.now()}
}

// Invalidate removes one entry and reports whether it was present
func (c *DocumentCache) Invalidate(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	delete(c.entries, id)
	return ok
}

// Clear removes every entry
func (c *DocumentCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*documentCacheEntry)
}

// Len returns the number of cached documents
func (c *DocumentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *DocumentCache) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	first := true
	for id, entry := range c.entries {
		if first || entry.cachedAt.Before(oldest) {
			oldestID, oldest, first = id, entry.cachedAt, false
		}
	}
	if !first {
		delete(c.entries, oldestID)
	}
}
