package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Microcache is a process-local, single-fixed-TTL, lazily-expiring cache
// smoothing burst traffic ahead of the distributed tier. A ttl of 0
// disables it entirely: Get always misses and Set is a no-op.
//
// go-cache's cleanup interval is left at 0, so there is no background
// sweeper; stale entries are reclaimed on access.
type Microcache struct {
	ttl time.Duration
	c   *gocache.Cache
}

// NewMicrocache constructs a microcache with the given fixed TTL.
func NewMicrocache(ttl time.Duration) *Microcache {
	if ttl <= 0 {
		return &Microcache{ttl: 0}
	}
	return &Microcache{ttl: ttl, c: gocache.New(ttl, 0)}
}

// Get returns the cached value for key and true if present and unexpired.
func (m *Microcache) Get(key string) (any, bool) {
	if m.c == nil {
		return nil, false
	}
	v, ok := m.c.Get(key)
	if !ok {
		// go-cache's Get leaves an expired item in place; drop it here so
		// stale entries are reclaimed on access.
		m.c.Delete(key)
	}
	return v, ok
}

// Set stores value under key with the cache's fixed TTL.
func (m *Microcache) Set(key string, value any) {
	if m.c == nil {
		return
	}
	m.c.Set(key, value, gocache.DefaultExpiration)
}
