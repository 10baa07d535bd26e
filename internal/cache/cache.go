// Package cache provides a TTL-keyed store of query results so repeated
// queries against a backend do not spend budget twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
)

// DefaultTTL is the entry lifetime when none is specified.
const DefaultTTL = 24 * time.Hour

type entry struct {
	results   []model.SearchResult
	createdAt time.Time
	ttl       time.Duration
}

// Cache is a mutex-serialized in-memory result cache with lazy expiry: a
// read of an expired entry evicts it and reports a miss. No background
// sweeping runs; Cleanup may be called to bound memory.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	nowFunc func() time.Time
}

// New creates a Cache with the given default TTL (DefaultTTL if ttl <= 0).
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (c *Cache) WithNow(fn func() time.Time) *Cache {
	c.nowFunc = fn
	return c
}

// Key derives the deterministic cache key for a backend/query pair.
func Key(backend model.Backend, query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(string(backend) + "\x00" + normalized))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached results for a query, or ok=false on miss or expiry.
func (c *Cache) Get(query string, backend model.Backend) ([]model.SearchResult, bool) {
	key := Key(backend, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.nowFunc().Sub(e.createdAt) > e.ttl {
		delete(c.entries, key)
		return nil, false
	}

	out := make([]model.SearchResult, len(e.results))
	copy(out, e.results)
	return out, true
}

// Has reports whether a live entry exists without copying results.
func (c *Cache) Has(query string, backend model.Backend) bool {
	key := Key(backend, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.nowFunc().Sub(e.createdAt) > e.ttl {
		delete(c.entries, key)
		return false
	}
	return true
}

// Set stores results under the default TTL.
func (c *Cache) Set(query string, backend model.Backend, results []model.SearchResult) {
	c.SetTTL(query, backend, results, c.ttl)
}

// SetTTL stores results with an explicit TTL.
func (c *Cache) SetTTL(query string, backend model.Backend, results []model.SearchResult, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	stored := make([]model.SearchResult, len(results))
	copy(stored, results)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(backend, query)] = entry{
		results:   stored,
		createdAt: c.nowFunc(),
		ttl:       ttl,
	}
}

// Cleanup evicts all expired entries and returns the eviction count.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	evicted := 0
	for key, e := range c.entries {
		if now.Sub(e.createdAt) > e.ttl {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of stored entries, including any not yet lazily
// evicted.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
