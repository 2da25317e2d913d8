package mask

import (
	"fmt"
	"image"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize bounds the number of cached masks.
const DefaultCacheSize = 64

type key struct {
	shape Shape
	w, h  int
	p     Params
}

// Cache memoizes generated masks by shape, size and params. It is safe for
// concurrent use; two goroutines missing on the same key may both generate
// the mask, and the later insert wins.
type Cache struct {
	lru    *lru.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a snapshot of cache usage.
type CacheStats struct {
	Entries int   `json:"entries" yaml:"entries"`
	Hits    int64 `json:"hits" yaml:"hits"`
	Misses  int64 `json:"misses" yaml:"misses"`
}

// NewCache creates a cache holding at most size masks.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create mask cache: %w", err)
	}
	return &Cache{lru: c}, nil
}

// Get returns the mask for shape at w×h, generating it on a miss.
func (c *Cache) Get(shape Shape, w, h int, p Params) (*image.Alpha, error) {
	k := key{shape: shape, w: w, h: h, p: p.withDefaults()}
	if v, ok := c.lru.Get(k); ok {
		c.hits.Add(1)
		return v.(*image.Alpha), nil
	}
	c.misses.Add(1)
	m, err := Generate(shape, w, h, p)
	if err != nil {
		return nil, err
	}
	c.lru.Add(k, m)
	return m, nil
}

// Clear drops every cached mask and resets the counters.
func (c *Cache) Clear() {
	c.lru.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats reports the current cache usage.
func (c *Cache) Stats() CacheStats {
	return CacheStats{Entries: c.lru.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
