package cache

import (
	"sync"
	"time"
)

// Cache is a small TTL cache fronting the public browse listing so bursts
// of identical queries do not each round-trip to the store. Writes through
// the CRUD controller clear it wholesale.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
}

type entry struct {
	value     any
	expiresAt time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value when present and fresh. Expired entries
// are evicted on access; there is no background janitor.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if !time.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	return e.value, true
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops everything. Called after any catalog write.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
