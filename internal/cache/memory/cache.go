// Package memory keeps login attempt counters in process memory when no Redis
// is configured. Counters are lost on restart and not shared between instances.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prn-tf/monedero/internal/repository"
)

// sweepInterval is how often expired entries are dropped.
const sweepInterval = time.Minute

// entry is a stored value. A zero expiresAt never expires.
type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// Cache implements repository.Cache on a mutex-guarded map.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewCache creates a Cache that sweeps expired entries until Stop is called.
func NewCache() *Cache {
	c := newCache(time.Now)
	go c.sweepLoop(sweepInterval)
	return c
}

func newCache(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
		stop:    make(chan struct{}),
	}
}

func (c *Cache) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, key)
		}
	}
}

// Stop ends the sweeper. It is safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// lookup returns the live entry for key. The caller holds c.mu.
func (c *Cache) lookup(key string) (entry, bool) {
	e, ok := c.entries[key]
	if ok && !e.live(c.now()) {
		delete(c.entries, key)
		return entry{}, false
	}
	return e, ok
}

func (c *Cache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

// Get returns a copy of the value at key, or repository.ErrCacheMiss.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key)
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return bytes.Clone(e.value), nil
}

// Set stores a copy of value. A non-positive ttl never expires.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: bytes.Clone(value), expiresAt: c.expiry(ttl)}
	return nil
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Expire replaces the TTL of an existing key. Missing keys are ignored.
func (c *Cache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.lookup(key); ok {
		e.expiresAt = c.expiry(ttl)
		c.entries[key] = e
	}
	return nil
}

// Increment adds delta to the decimal counter at key, starting from zero
// when absent. The counter keeps its TTL, as with Redis INCRBY.
func (c *Cache) Increment(_ context.Context, key string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, _ := c.lookup(key)
	var n int64
	if len(e.value) > 0 {
		parsed, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %q is not an integer: %w", key, err)
		}
		n = parsed
	}

	n += delta
	e.value = []byte(strconv.FormatInt(n, 10))
	c.entries[key] = e
	return n, nil
}

var _ repository.Cache = (*Cache)(nil)
