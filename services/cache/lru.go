package cachesvc

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/janisrealty/janis/core"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache is a size-bounded LRU cache whose entries expire.
type TTLCache struct {
	mu  sync.Mutex
	lru *lru.Cache
	now func() time.Time
}

var _ core.Cache = (*TTLCache)(nil)

func NewTTLCache(maxEntries int) *TTLCache {
	return &TTLCache{lru: lru.New(maxEntries), now: time.Now}
}

func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

func (c *TTLCache) Take(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.get(key)
	if ok {
		c.lru.Remove(key)
	}
	return v, ok
}

// get must be called with mu held.
func (c *TTLCache) get(key string) (interface{}, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. A ttl <= 0 never expires.
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.lru.Add(key, e)
	c.mu.Unlock()
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	c.lru.Remove(key)
	c.mu.Unlock()
}

func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
