// Package cache provides a byte-budgeted LRU cache.
//
// Entries carry a cost in bytes. When the total cost exceeds the budget,
// least recently used entries are evicted until the cache fits again.
//
//	c := cache.New[uint64, []byte](64 << 20)
//	c.Set(id, pixels, len(pixels))
//	pixels, ok := c.Get(id)
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
