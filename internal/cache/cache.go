// Package cache provides the in-memory LRU store for decoded tile payloads.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"tilemap/internal/geo"
	"tilemap/pkg/metrics"
)

// DefaultCapacity is the number of tiles kept when no capacity is
// configured.
const DefaultCapacity = 1024

// Cache is a bounded LRU tile store. Payload slices are shared between the
// cache and its callers and must be treated as immutable.
type Cache struct {
	lru *lru.Cache[geo.TileCoord, []byte]
}

// New builds a cache holding at most capacity tiles. Capacity values below
// one fall back to DefaultCapacity.
func New(capacity int) (*Cache, error) {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	l, err := lru.New[geo.TileCoord, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("create tile cache: %w", err)
	}
	return &Cache{lru: l}, nil
}

// Get returns the payload for coord and marks it recently used.
func (c *Cache) Get(coord geo.TileCoord) ([]byte, bool) {
	data, ok := c.lru.Get(coord)
	if ok {
		metrics.CacheHits.Inc()
	} else {
		metrics.CacheMisses.Inc()
	}
	return data, ok
}

// Peek returns the payload without touching recency.
func (c *Cache) Peek(coord geo.TileCoord) ([]byte, bool) {
	return c.lru.Peek(coord)
}

// Put stores a payload, evicting the least recently used tile when the
// cache is full.
func (c *Cache) Put(coord geo.TileCoord, data []byte) {
	c.lru.Add(coord, data)
}

// Contains reports presence without touching recency.
func (c *Cache) Contains(coord geo.TileCoord) bool {
	return c.lru.Contains(coord)
}

// Remove drops a single tile.
func (c *Cache) Remove(coord geo.TileCoord) {
	c.lru.Remove(coord)
}

// Clear drops every cached tile.
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Len returns the number of cached tiles.
func (c *Cache) Len() int {
	return c.lru.Len()
}
