// ABOUTME: Bounded TTL set of credentials that recently failed to resolve to a user
// ABOUTME: Lets the middleware turn away repeated unknown keys without a store lookup

package auth

import (
	"container/list"
	"sync"
	"time"
)

type rejectEntry struct {
	at      time.Time
	element *list.Element
}

// RejectCache remembers rejected user keys for a TTL. When full, the oldest
// entry is evicted. Expired entries are dropped lazily.
type RejectCache struct {
	mu      sync.Mutex
	seen    map[string]*rejectEntry
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// NewRejectCache creates a cache holding at most maxSize keys for ttl each.
func NewRejectCache(ttl time.Duration, maxSize int) *RejectCache {
	return &RejectCache{
		seen:    make(map[string]*rejectEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Rejected reports whether key was rejected within the TTL.
func (c *RejectCache) Rejected(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.seen[key]
	if !ok {
		return false
	}
	if c.now().Sub(entry.at) >= c.ttl {
		c.order.Remove(entry.element)
		delete(c.seen, key)
		return false
	}
	return true
}

// Reject records key as unknown, refreshing its TTL if already present.
func (c *RejectCache) Reject(key string) {
	if c.maxSize <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.seen[key]; ok {
		entry.at = now
		c.order.MoveToBack(entry.element)
		return
	}

	for len(c.seen) >= c.maxSize {
		front := c.order.Front()
		oldest, _ := front.Value.(string)
		c.order.Remove(front)
		delete(c.seen, oldest)
	}

	c.seen[key] = &rejectEntry{at: now, element: c.order.PushBack(key)}
}
