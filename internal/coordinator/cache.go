package coordinator

import (
	"sync"
	"time"

	"github.com/washtower/zeo-core/internal/zeo"
)

// entry is one cached attribute value and the time it was last refreshed.
type entry struct {
	value         any
	lastRefreshed time.Time
}

// StateCache holds the last known value of every attribute the device has
// reported. Values are never deleted individually; a failed refresh leaves
// the previous value in place so consumers keep reading stale-but-present
// data instead of gaps.
//
// All methods are safe for concurrent use.
type StateCache struct {
	mu      sync.RWMutex
	entries map[zeo.Protocol]entry
}

// NewStateCache creates an empty cache.
func NewStateCache() *StateCache {
	return &StateCache{
		entries: make(map[zeo.Protocol]entry),
	}
}

// Get returns the last known value for a protocol.
//
// Never triggers I/O. The value may be stale; callers wanting freshness
// guarantees should check LastRefreshed.
func (c *StateCache) Get(protocol zeo.Protocol) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[protocol]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// LastRefreshed returns when a protocol's value was last merged.
func (c *StateCache) LastRefreshed(protocol zeo.Protocol) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[protocol]
	if !ok {
		return time.Time{}, false
	}
	return e.lastRefreshed, true
}

// Merge overwrites the entries named in results and stamps each with at.
//
// Merging an empty map is a no-op: existing values and timestamps are
// left untouched. Keys absent from results are never cleared.
func (c *StateCache) Merge(results map[zeo.Protocol]any, at time.Time) {
	if len(results) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for protocol, value := range results {
		c.entries[protocol] = entry{value: value, lastRefreshed: at}
	}
}

// Snapshot returns a copy of all cached values.
func (c *StateCache) Snapshot() map[zeo.Protocol]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[zeo.Protocol]any, len(c.entries))
	for protocol, e := range c.entries {
		out[protocol] = e.value
	}
	return out
}

// Len returns the number of cached entries.
func (c *StateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
