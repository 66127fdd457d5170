package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

// CachedClassifier wraps a remote-capable classifier with an in-memory LRU
// cache keyed by feature vector. Features are deterministic per village, so
// repeated checks for the same village skip the network round trip.
type CachedClassifier struct {
	inner domain.ProbabilityClassifier
	cache *lruCache
}

// NewCachedClassifier creates a cache decorator around a probability classifier.
func NewCachedClassifier(inner domain.ProbabilityClassifier, maxEntries int) *CachedClassifier {
	return &CachedClassifier{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedClassifier) Describe() string {
	return c.inner.Describe() + "+cache"
}

func (c *CachedClassifier) PredictProbability(ctx context.Context, features domain.FeatureVector) (float64, error) {
	key := cacheKey(features)
	if p, ok := c.cache.get(key); ok {
		return p, nil
	}

	p, err := c.inner.PredictProbability(ctx, features)
	if err != nil {
		return p, err
	}
	c.cache.put(key, p)
	return p, nil
}

func cacheKey(f domain.FeatureVector) string {
	return fmt.Sprintf("%.9f|%.9f|%.9f|%.9f", f.RainfallMM, f.TemperatureC, f.HumidityPct, f.NDVI)
}

// lruCache is a small thread-safe LRU for probabilities.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value float64
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value float64) {
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
