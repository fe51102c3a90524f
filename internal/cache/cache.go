package cache

import "sync"

// Cache is a thread-safe LRU cache bounded by total entry cost.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*lruNode[K, V]
	order   lruList[K, V]
	budget  int
	bytes   int
	onEvict func(K, V)
	stats   Stats
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Bytes     int
	Budget    int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New creates a cache holding at most budget bytes.
// A budget of 0 means unlimited.
func New[K comparable, V any](budget int) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*lruNode[K, V]),
		budget:  budget,
	}
}

// OnEvict registers fn to be called for each entry evicted by budget
// pressure or Trim. fn runs with the cache lock held and must not call
// back into the cache.
func (c *Cache[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	c.order.moveToFront(n)
	return n.value, true
}

// Set stores a value with the given cost, replacing any previous entry.
func (c *Cache[K, V]) Set(key K, value V, cost int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		c.bytes += cost - n.cost
		n.value = value
		n.cost = cost
		c.order.moveToFront(n)
	} else {
		n := &lruNode[K, V]{key: key, value: value, cost: cost}
		c.entries[key] = n
		c.order.pushFront(n)
		c.bytes += cost
	}
	if c.budget > 0 {
		c.trimLocked(c.budget)
	}
}

// Delete removes an entry. Returns true if it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(n)
	return true
}

// SetBudget changes the byte budget and evicts down to it.
func (c *Cache[K, V]) SetBudget(budget int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.budget = budget
	if budget > 0 {
		c.trimLocked(budget)
	}
}

// Trim evicts least recently used entries until at most target bytes remain.
func (c *Cache[K, V]) Trim(target int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trimLocked(target)
}

// Bytes returns the total cost of cached entries.
func (c *Cache[K, V]) Bytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Len = len(c.entries)
	s.Bytes = c.bytes
	s.Budget = c.budget
	return s
}

func (c *Cache[K, V]) trimLocked(target int) {
	for c.bytes > target && c.order.tail != nil {
		n := c.order.tail
		c.removeLocked(n)
		c.stats.Evictions++
		if c.onEvict != nil {
			c.onEvict(n.key, n.value)
		}
	}
}

func (c *Cache[K, V]) removeLocked(n *lruNode[K, V]) {
	c.order.unlink(n)
	delete(c.entries, n.key)
	c.bytes -= n.cost
}
