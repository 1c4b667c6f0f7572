package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/sketchmine/internal/sketch"
)

// SketchCache is an in-memory, concurrency-safe sketch cache
type SketchCache struct {
	cache  *gocache.Cache
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// NewSketchCache creates a cache. A ttl <= 0 keeps entries for the cache lifetime.
func NewSketchCache(ttl time.Duration) *SketchCache {
	cleanup := DefaultCleanupInterval
	if ttl <= 0 {
		ttl = gocache.NoExpiration
		cleanup = 0
	}
	return &SketchCache{
		cache: gocache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

// Get retrieves a sketch from the cache
func (c *SketchCache) Get(key string) (sketch.Sketch, bool) {
	if val, found := c.cache.Get(key); found {
		c.hits.Add(1)
		return val.(sketch.Sketch), true
	}
	c.misses.Add(1)
	return nil, false
}

// Set stores a sketch with the cache default TTL
func (c *SketchCache) Set(key string, s sketch.Sketch) {
	c.cache.Set(key, s, gocache.DefaultExpiration)
}

// Len returns the number of cached sketches
func (c *SketchCache) Len() int {
	return c.cache.ItemCount()
}

// Clear removes all sketches from the cache
func (c *SketchCache) Clear() {
	c.cache.Flush()
}

// Stats returns hit/miss counters
func (c *SketchCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Items:  c.cache.ItemCount(),
	}
}
