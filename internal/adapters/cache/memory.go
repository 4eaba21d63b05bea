package cache

import (
	"sync"
	"time"
)

// SeenCache is an in-memory set of tweet ids with TTL expiry.
type SeenCache struct {
	ids  sync.Map
	ttl  time.Duration
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewSeenCache creates a cache remembering ids for ttl and starts the
// background sweeper. Call Close to stop it.
func NewSeenCache(ttl time.Duration) *SeenCache {
	c := newSeenCache(ttl, time.Now)
	go c.cleanup(time.Minute)
	return c
}

func newSeenCache(ttl time.Duration, now func() time.Time) *SeenCache {
	return &SeenCache{ttl: ttl, now: now, stop: make(chan struct{})}
}

// MarkSeen records id and reports whether it was absent or expired.
func (c *SeenCache) MarkSeen(id string) bool {
	now := c.now()
	expiresAt := now.Add(c.ttl)

	for {
		prev, loaded := c.ids.LoadOrStore(id, expiresAt)
		if !loaded {
			return true
		}
		if now.Before(prev.(time.Time)) {
			return false
		}
		// Expired: claim it unless another caller refreshed it first.
		if c.ids.CompareAndSwap(id, prev, expiresAt) {
			return true
		}
	}
}

// Forget removes id.
func (c *SeenCache) Forget(id string) {
	c.ids.Delete(id)
}

// Len returns the number of tracked ids, expired or not.
func (c *SeenCache) Len() int {
	n := 0
	c.ids.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the sweeper.
func (c *SeenCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// sweep removes expired ids.
func (c *SeenCache) sweep() {
	now := c.now()
	c.ids.Range(func(key, value any) bool {
		if !now.Before(value.(time.Time)) {
			c.ids.CompareAndDelete(key, value)
		}
		return true
	})
}

func (c *SeenCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}
