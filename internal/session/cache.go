package session

import (
	"sync"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

// Cache is the in-memory mirror of the durable backend. It is
// non-authoritative: it has no independent write path to storage and is
// rebuilt from the backend on the next successful read.
type Cache struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
}

func NewCache() *Cache {
	return &Cache{
		sessions: make(map[domain.SessionID]*domain.Session),
	}
}

// Put stores a deep copy so later mutations of the argument cannot reach
// the cached version.
func (c *Cache) Put(sess *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sess.ID] = sess.Clone()
}

func (c *Cache) Get(id domain.SessionID) (*domain.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sess, ok := c.sessions[id]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

func (c *Cache) Delete(id domain.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}

// ListByUser returns cached sessions for a user scoped to one app.
func (c *Cache) ListByUser(appName string, userID domain.UserID) []*domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*domain.Session
	for _, sess := range c.sessions {
		if sess.AppName == appName && sess.UserID == userID {
			out = append(out, sess.Clone())
		}
	}
	return out
}
