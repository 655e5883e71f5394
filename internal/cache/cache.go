package cache

import (
	"fmt"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vk/tfindex/internal/block"
)

// identity is the part of the cache key derived from the file itself. A hit
// requires an exact match on every field; any mismatch, including the file
// no longer existing, is a miss.
type identity struct {
	modTime int64 // nanoseconds
	size    int64
}

type entry struct {
	id       identity
	result   *block.ParseResult
	cachedAt time.Time
	hitCount int
}

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64

	// Evictions counts entries displaced by capacity pressure only. TTL
	// purges, stale-identity removals, and explicit Evict calls are not
	// evictions in this sense.
	Evictions int64
}

// ParseCache stores parse results per absolute file path. Reads and writes
// both pass through deep copies, so cached state is never shared with
// callers that mutate block slices in place during incremental updates.
type ParseCache struct {
	mu     sync.Mutex
	lru    *lru.Cache[string, *entry]
	maxAge time.Duration

	hits      int64
	misses    int64
	evictions int64
}

// New returns a cache bounded to maxEntries with the given entry TTL.
func New(maxEntries int, maxAge time.Duration) (*ParseCache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", maxEntries)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("cache max age must be positive, got %s", maxAge)
	}
	c := &ParseCache{maxAge: maxAge}
	backing, err := lru.New[string, *entry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru store: %w", err)
	}
	c.lru = backing
	return c, nil
}

// Get returns the cached parse result for path, or nil on a miss. A result
// is only returned when the file still exists with the exact recorded
// modification time and size, and the entry has not aged past the TTL;
// stale entries are silently removed. I/O failures while checking the key
// are treated as misses, never propagated.
func (c *ParseCache) Get(path string) *block.ParseResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(path)
	if !ok {
		c.misses++
		return nil
	}
	if time.Since(e.cachedAt) > c.maxAge {
		c.lru.Remove(path)
		c.misses++
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || currentIdentity(info) != e.id {
		c.lru.Remove(path)
		c.misses++
		return nil
	}

	e.hitCount++
	c.hits++
	return e.result.Copy()
}

// Set stores a parse result for path, keyed on the file's current identity.
// A file that cannot be stat'ed is simply not cached. Expired entries are
// purged first so capacity pressure evicts live entries only as a last
// resort.
func (c *ParseCache) Set(path string, result *block.ParseResult) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired()
	if c.lru.Add(path, &entry{
		id:       currentIdentity(info),
		result:   result.Copy(),
		cachedAt: time.Now(),
	}) {
		c.evictions++
	}
}

// Evict removes the entry for path, reporting whether one existed. Callers
// evict on file change or deletion so the next Get forces a fresh parse.
func (c *ParseCache) Evict(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(path)
}

// Clear drops every entry.
func (c *ParseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *ParseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns a snapshot of the cache counters.
func (c *ParseCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   c.lru.Len(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// HitCount returns how many times the entry for path has been served.
// Primarily a diagnostics hook.
func (c *ParseCache) HitCount(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lru.Peek(path); ok {
		return e.hitCount
	}
	return 0
}

// purgeExpired removes entries older than the TTL. Caller holds c.mu.
func (c *ParseCache) purgeExpired() {
	now := time.Now()
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && now.Sub(e.cachedAt) > c.maxAge {
			c.lru.Remove(key)
		}
	}
}

func currentIdentity(info os.FileInfo) identity {
	return identity{
		modTime: info.ModTime().UnixNano(),
		size:    info.Size(),
	}
}
