package chat

import (
	"sync"

	"github.com/platewise/platewise/internal/restaurant"
)

// Cache holds the most recent retrieval result per user.
//
// Each user has one entry guarded by its own mutex. Holding the entry lock
// for a whole turn serializes concurrent turns from the same user, closing
// the last-writer-wins race on the cached candidates. Turns from different
// users never contend.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
}

// CacheEntry is one user's locked cache slot. Obtained via Cache.Lock and
// released with Unlock; Candidates and Replace must only be called while
// the entry is held.
type CacheEntry struct {
	mu         sync.Mutex
	candidates []restaurant.Restaurant
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*CacheEntry)}
}

// Lock acquires the per-user entry, creating it on first use.
// Blocks while another turn for the same user holds it.
func (c *Cache) Lock(userID string) *CacheEntry {
	c.mu.Lock()
	entry, ok := c.entries[userID]
	if !ok {
		entry = &CacheEntry{}
		c.entries[userID] = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	return entry
}

// Unlock releases the entry for the next turn.
func (e *CacheEntry) Unlock() {
	e.mu.Unlock()
}

// Candidates returns the cached candidate set from the most recent fresh
// retrieval. Nil or empty means no usable cache.
func (e *CacheEntry) Candidates() []restaurant.Restaurant {
	return e.candidates
}

// Replace swaps in a new candidate set. The cache is replaced wholesale on
// every fresh retrieval, never merged.
func (e *CacheEntry) Replace(candidates []restaurant.Restaurant) {
	e.candidates = candidates
}
