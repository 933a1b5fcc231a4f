// Package dedup keeps a time-windowed set of recently processed message ids
// so transport-level retries are not handled twice. Purely in-process: a
// restart clears it, which is acceptable because the transport's retry
// window is much shorter than expected process uptime.
package dedup

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long a message id is remembered.
const DefaultTTL = 10 * time.Minute

type Cache struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// IsDuplicate prunes expired entries, then reports whether messageID was
// already seen within the TTL, inserting it when it was not. An empty id is
// never a duplicate: we cannot dedup what we cannot identify.
func (c *Cache) IsDuplicate(messageID string) bool {
	if messageID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, firstSeen := range c.seen {
		if now.Sub(firstSeen) > c.ttl {
			delete(c.seen, id)
		}
	}

	if _, ok := c.seen[messageID]; ok {
		return true
	}
	c.seen[messageID] = now
	return false
}
