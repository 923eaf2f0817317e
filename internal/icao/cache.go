// Package icao owns the process-wide(-per-pipeline) ICAO address cache
// used to gate implicit-address replies, plus the country/military-block
// and US civil N-number lookups used when an aircraft is first observed.
package icao

import (
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// DefaultTTL is the default lifetime of a cached ICAO address (spec.md §4.2).
const DefaultTTL = 60 * time.Second

// Cache tracks, per pipeline, the most recent timestamp at which a
// CRC-validated explicit-address frame carried a given 24-bit ICAO
// address. Implicit-address replies (DF 0/4/5/16/20/21) are only
// accepted if their address is present here — without this gate any
// 24-bit noise pattern parses as a "new aircraft" (spec.md §4.2).
//
// Owned by exactly one pipeline; never shared across pipelines
// (spec.md §5, §9).
type Cache struct {
	c   *cache.Cache
	ttl time.Duration
}

// New creates an ICAO cache with the given TTL. A TTL of zero uses
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		c:   cache.New(ttl, ttl/2+1*time.Second),
		ttl: ttl,
	}
}

func key(addr uint32) string {
	return fmt.Sprintf("%06X", addr)
}

// Add registers addr, storing at as its last validation time. The entry
// expires TTL after this call, measured on the wall clock; at does not
// affect expiry.
func (c *Cache) Add(addr uint32, at time.Time) {
	c.c.Set(key(addr), at, c.ttl)
}

// Seen reports whether addr was added less than TTL ago by the wall
// clock; frame timestamps are not consulted. Expired entries are removed
// lazily by the underlying cache's janitor and are never returned as
// present.
func (c *Cache) Seen(addr uint32) bool {
	_, found := c.c.Get(key(addr))
	return found
}

// Reset clears all cached entries. Required by tests (spec.md §9) and by
// any pipeline restart.
func (c *Cache) Reset() {
	c.c.Flush()
}

// Len reports the number of currently-cached (possibly about-to-expire)
// entries.
func (c *Cache) Len() int {
	return c.c.ItemCount()
}
