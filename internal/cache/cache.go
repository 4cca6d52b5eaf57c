package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/selimozcann/LinkGuard/internal/metrics"
)

// Stats is a point-in-time view of a cache.
type Stats struct {
	Name    string `json:"name"`
	Size    int    `json:"size"`
	MaxSize int    `json:"max_size"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	HitRate string `json:"hit_rate"`
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a bounded map whose entries expire after a fixed TTL. Expired
// entries are dropped lazily on access. When full, the entry closest to
// expiry is evicted, which approximates oldest-first.
type TTLCache[V any] struct {
	mu      sync.Mutex
	name    string
	items   map[string]entry[V]
	maxSize int
	ttl     time.Duration
	hits    int64
	misses  int64

	now func() time.Time
}

// New creates a cache. maxSize <= 0 means a single entry.
func New[V any](name string, maxSize int, ttl time.Duration) *TTLCache[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &TTLCache[V]{
		name:    name,
		items:   make(map[string]entry[V]),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (c *TTLCache[V]) WithClock(now func() time.Time) *TTLCache[V] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if ok && c.now().After(e.expiresAt) {
		delete(c.items, key)
		ok = false
	}
	if !ok {
		c.misses++
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		var zero V
		return zero, false
	}
	c.hits++
	metrics.CacheHits.WithLabelValues(c.name).Inc()
	return e.value, true
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldest()
	}
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet dropped.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Prune removes every expired entry and returns how many were dropped.
func (c *TTLCache[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *TTLCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	rate := "0%"
	if total := c.hits + c.misses; total > 0 && c.hits > 0 {
		rate = fmt.Sprintf("%.1f%%", float64(c.hits)/float64(total)*100)
	}
	return Stats{
		Name:    c.name,
		Size:    len(c.items),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}

func (c *TTLCache[V]) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.items {
		if first || e.expiresAt.Before(oldest) {
			oldestKey, oldest, first = k, e.expiresAt, false
		}
	}
	if !first {
		delete(c.items, oldestKey)
		metrics.CacheEvictions.WithLabelValues(c.name).Inc()
	}
}
