package cachesvc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTTLCache(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewTTLCache(2)
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, 0)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "expired")
	v, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	c.Set("c", 3, 0)
	c.Set("d", 4, 0)
	_, ok = c.Get("b")
	assert.False(t, ok, "evicted")
	assert.Equal(t, 2, c.Len())

	c.Delete("c")
	_, ok = c.Get("c")
	assert.False(t, ok)
}

func TestTTLCache_concurrent(t *testing.T) {
	c := NewTTLCache(100)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			c.Set(key, i, time.Hour)
			c.Get(key)
			c.Delete(key)
		}(i)
	}
	wg.Wait()
	assert.Zero(t, c.Len())
}

func TestTTLCache_Take(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewTTLCache(10)
	c.now = func() time.Time { return now }
	c.Set("alerts", []int{7}, time.Hour)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		takes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, ok := c.Take("alerts"); ok {
				mu.Lock()
				takes++
				mu.Unlock()
				assert.Equal(t, []int{7}, v)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, takes)
	assert.Zero(t, c.Len())

	c.Set("old", 1, time.Minute)
	now = now.Add(time.Minute)
	_, ok := c.Take("old")
	assert.False(t, ok, "expired")
}
