// Package memo provides the bounded memo cache used by the value formatter
// and the string comparator.
//
// The cache never evicts individual entries. When an insert would take the
// entry count past the capacity, the whole cache is cleared first and
// repopulation starts from empty. Memoized functions are pure for the
// lifetime of the process, so a clear only costs recomputation.
package memo

import (
	"sync"

	"github.com/ballistics/pointdeck/metric"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 10000

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits    int64
	Misses  int64
	Clears  int64
	Entries int
}

// Cache is a fixed-capacity map that clears itself on overflow.
type Cache[V any] struct {
	mu       sync.Mutex
	items    map[string]V
	count    int
	capacity int

	hits   int64
	misses int64
	clears int64

	name    string
	metrics *metric.Metrics
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	name    string
	metrics *metric.Metrics
}

// WithMetrics reports hits, misses and clears under the given cache name.
func WithMetrics(m *metric.Metrics, name string) Option {
	return func(o *options) {
		o.metrics = m
		o.name = name
	}
}

// New creates a cache holding at most capacity entries.
func New[V any](capacity int, opts ...Option) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &Cache[V]{
		items:    make(map[string]V),
		capacity: capacity,
		name:     o.name,
		metrics:  o.metrics,
	}
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	value, ok := c.items[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()

	if ok {
		c.metrics.RecordCache(c.name, metric.CacheHit)
	} else {
		c.metrics.RecordCache(c.name, metric.CacheMiss)
	}
	return value, ok
}

// Set stores value under key, clearing the cache first if it is full.
// Overwriting an existing key does not count as a new entry.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	cleared := false
	if _, exists := c.items[key]; !exists {
		if c.count >= c.capacity {
			c.items = make(map[string]V)
			c.count = 0
			c.clears++
			cleared = true
		}
		c.count++
	}
	c.items[key] = value
	c.mu.Unlock()

	if cleared {
		c.metrics.RecordCache(c.name, metric.CacheClear)
	}
}

// GetOrCompute returns the cached value for key or computes, stores and
// returns it. compute runs outside the lock.
func (c *Cache[V]) GetOrCompute(key string, compute func() V) V {
	if value, ok := c.Get(key); ok {
		return value
	}
	value := compute()
	c.Set(key, value)
	return value
}

// Reset drops every entry and keeps the capacity.
func (c *Cache[V]) Reset() {
	c.mu.Lock()
	c.items = make(map[string]V)
	c.count = 0
	c.mu.Unlock()
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Capacity returns the configured capacity.
func (c *Cache[V]) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of hit, miss and clear counts.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Clears:  c.clears,
		Entries: c.count,
	}
}
