package cache

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/travel-climate/internal/climate"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a concurrency-safe in-memory profile cache. It stores the
// same compressed bytes as the Redis implementation so both share identical
// round-trip semantics. Intended for tests and redis-less local runs.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	ttl  time.Duration
}

// NewMemory creates a MemoryCache. A ttl of zero falls back to DefaultTTL.
func NewMemory(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		data: make(map[string]memoryEntry),
		ttl:  ttl,
	}
}

func (c *MemoryCache) Get(_ context.Context, city string, month int) (climate.MonthlyProfile, bool, error) {
	key := Key(city, month)

	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return climate.MonthlyProfile{}, false, nil
	}

	profile, err := decodeProfile(entry.data)
	if err != nil {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return climate.MonthlyProfile{}, false, nil
	}
	return profile, true, nil
}

func (c *MemoryCache) Put(_ context.Context, profile climate.MonthlyProfile) error {
	data, err := encodeProfile(profile)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.data[Key(profile.City, profile.Month)] = memoryEntry{
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}
