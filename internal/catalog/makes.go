// Package catalog serves the vehicle makes list behind an explicit TTL
// cache. The cache is a value owned by whoever constructs it and passed by
// reference to the handlers that need it; there is no package-level state.
package catalog

import (
	"context"
	"sync"
	"time"
)

// DefaultMakes seeds the list when the fetch source has nothing newer
var DefaultMakes = []string{
	"Acura", "Audi", "BMW", "Buick", "Cadillac", "Chevrolet", "Chrysler",
	"Dodge", "Ford", "GMC", "Honda", "Hyundai", "Infiniti", "Jeep", "Kia",
	"Lexus", "Mazda", "Mercedes-Benz", "Nissan", "Ram", "Subaru", "Tesla",
	"Toyota", "Volkswagen", "Volvo",
}

// FetchFunc loads the current makes list from the backing source
type FetchFunc func(ctx context.Context) ([]string, error)

// MakesCache caches the makes list for a fixed TTL
type MakesCache struct {
	mu        sync.Mutex
	fetch     FetchFunc
	ttl       time.Duration
	now       func() time.Time
	makes     []string
	expiresAt time.Time
}

// NewMakesCache creates a cache over fetch with the given TTL. A nil fetch
// always serves DefaultMakes.
func NewMakesCache(fetch FetchFunc, ttl time.Duration) *MakesCache {
	return &MakesCache{fetch: fetch, ttl: ttl, now: time.Now}
}

// Get returns the cached makes list, refreshing it when the TTL has lapsed.
// A failed refresh serves the previous value if one exists.
func (c *MakesCache) Get(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.makes != nil && c.now().Before(c.expiresAt) {
		return c.makes, nil
	}

	if c.fetch == nil {
		c.makes = DefaultMakes
		c.expiresAt = c.now().Add(c.ttl)
		return c.makes, nil
	}

	fresh, err := c.fetch(ctx)
	if err != nil {
		if c.makes != nil {
			return c.makes, nil
		}
		return nil, err
	}
	if len(fresh) == 0 {
		fresh = DefaultMakes
	}

	c.makes = fresh
	c.expiresAt = c.now().Add(c.ttl)
	return c.makes, nil
}

// Invalidate drops the cached value so the next Get refetches
func (c *MakesCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.makes = nil
	c.expiresAt = time.Time{}
}
