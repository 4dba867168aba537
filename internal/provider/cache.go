package provider

import (
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/gojankovic/fpl-insights/internal/metrics"
)

// CacheKey identifies one provider read
type CacheKey struct {
	Method string
	Args   []int
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%v", k.Method, k.Args)
}

// ReadCache is a bounded in-memory cache of provider reads
type ReadCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewReadCache creates a new read cache
func NewReadCache(ttl time.Duration, maxSize int) *ReadCache {
	return &ReadCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached value
func (rc *ReadCache) Get(key CacheKey) (interface{}, bool) {
	value, found := rc.cache.Get(key.String())

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if found {
		rc.hitCount++
		metrics.RecordCacheHit(key.Method)
		return value, true
	}
	rc.missCount++
	metrics.RecordCacheMiss(key.Method)
	return nil, false
}

// Set stores a value in cache
func (rc *ReadCache) Set(key CacheKey, value interface{}) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.maxSize > 0 && rc.cache.ItemCount() >= rc.maxSize {
		rc.cache.DeleteExpired()
		if rc.cache.ItemCount() >= rc.maxSize {
			return
		}
	}
	rc.cache.Set(key.String(), value, rc.ttl)
}

// Clear flushes the entire cache
func (rc *ReadCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.cache.Flush()
	rc.hitCount = 0
	rc.missCount = 0
}

// Stats returns cache statistics
func (rc *ReadCache) Stats() (hits, misses uint64, ratio float64) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	hits = rc.hitCount
	misses = rc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (rc *ReadCache) ItemCount() int {
	return rc.cache.ItemCount()
}
