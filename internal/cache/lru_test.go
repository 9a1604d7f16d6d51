package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRU_GetSetDelete(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	c.Set("b", 2)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// "b" is now least recently used and is evicted.
	c.Set("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size())

	c.Set("a", 10)
	v, _ = c.Get("a")
	assert.Equal(t, 10, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size())
}

func TestLRU_Expiry(t *testing.T) {
	now := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
	c := NewLRU[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("fresh", "x")
	c.Set("stale", "y")

	now = now.Add(30 * time.Second)
	c.Set("fresh", "x2")

	now = now.Add(45 * time.Second)
	_, ok := c.Get("stale")
	assert.False(t, ok)

	v, ok := c.Get("fresh")
	assert.True(t, ok)
	assert.Equal(t, "x2", v)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}
