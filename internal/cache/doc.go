// Package cache provides a small thread-safe LRU cache.
//
//	c := cache.New[string, []uint32](64)
//	words, err := c.GetOrCreate(src, compile)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
