package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jmhodges/clock"
)

// InMem is a Cache backed by a process-local map. It serves single-process
// deployments and tests; entries expire lazily on read.
type InMem struct {
	clk clock.Clock

	mu      sync.RWMutex
	entries map[string]inMemEntry
}

type inMemEntry struct {
	value   string
	expires time.Time
}

// NewInMem returns an empty in-memory cache reading time from clk.
func NewInMem(clk clock.Clock) *InMem {
	return &InMem{clk: clk, entries: make(map[string]inMemEntry)}
}

// Get implements Cache.
func (c *InMem) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !entry.expires.IsZero() && !c.clk.Now().Before(entry.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set implements Cache. A zero ttl stores the entry without expiry.
func (c *InMem) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = c.clk.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = inMemEntry{value: value, expires: expires}
	c.mu.Unlock()
	return nil
}
