package archive

import (
	"context"
	"sync"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
	"github.com/couchcryptid/hydrophone-sonify/internal/observability"
)

// DefaultCacheSize is the number of decoded files kept by CachedFetcher.
const DefaultCacheSize = 256

// fileFetcher is the part of Fetcher the cache decorates.
type fileFetcher interface {
	Fetch(ctx context.Context, file domain.FileHandle) ([]domain.Segment, error)
	Size(ctx context.Context, file domain.FileHandle) (int64, bool)
}

// CachedFetcher wraps a Fetcher with an in-memory LRU cache of decoded files.
// Archive files are immutable once the next file appears, so repeated passes
// over the same folder only download what is new.
type CachedFetcher struct {
	inner   fileFetcher
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner fileFetcher, maxEntries int, metrics *observability.Metrics) *CachedFetcher {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	return &CachedFetcher{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, file domain.FileHandle) ([]domain.Segment, error) {
	key := string(file)
	if e, ok := c.cache.get(key); ok {
		c.metrics.FetchCache.WithLabelValues("hit").Inc()
		return e.segments, nil
	}
	c.metrics.FetchCache.WithLabelValues("miss").Inc()

	segs, err := c.inner.Fetch(ctx, file)
	if err != nil {
		return segs, err
	}
	// Only cache files with data so an empty file caught mid-write is fetched again.
	if domain.ClassifyFetch(segs, nil) == domain.OutcomeSuccess {
		c.cache.put(key, cacheEntry{segments: segs})
	}
	return segs, nil
}

// Size reports the cached size when the file was probed before.
func (c *CachedFetcher) Size(ctx context.Context, file domain.FileHandle) (int64, bool) {
	key := string(file)
	if e, ok := c.cache.get(key); ok && e.sizeKnown {
		return e.size, true
	}
	n, ok := c.inner.Size(ctx, file)
	if ok {
		c.cache.update(key, func(e *cacheEntry) {
			e.size = n
			e.sizeKnown = true
		})
	}
	return n, ok
}

// Len reports the number of cached files.
func (c *CachedFetcher) Len() int {
	return c.cache.count()
}

type cacheEntry struct {
	segments  []domain.Segment
	size      int64
	sizeKnown bool
}

// lruCache is a simple thread-safe LRU cache of decoded files.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value cacheEntry
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

// update modifies an existing entry in place. Missing keys are ignored.
func (c *lruCache) update(key string, fn func(*cacheEntry)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		fn(&e.value)
	}
}

func (c *lruCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
