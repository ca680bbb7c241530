package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache is an explicit, injectable lookup cache. Entries expire after the
// configured TTL; there is no background sweeper, expiry is checked on read.
type TTLCache struct {
	ttl     time.Duration
	clock   clockwork.Clock
	mutex   sync.RWMutex
	entries map[string]entry
}

func NewTTLCache(ttl time.Duration, clock clockwork.Clock) *TTLCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TTLCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry),
	}
}

func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	e, ok := c.entries[key]
	c.mutex.RUnlock()

	if !ok {
		return nil, false
	}
	if c.clock.Now().After(e.expiresAt) {
		c.mutex.Lock()
		// Re-check under the write lock, a Set may have raced the expiry.
		if current, ok := c.entries[key]; ok && c.clock.Now().After(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mutex.Unlock()
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

// Invalidate removes a single key.
func (c *TTLCache) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// Flush removes everything.
func (c *TTLCache) Flush() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]entry)
}

func (c *TTLCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}
