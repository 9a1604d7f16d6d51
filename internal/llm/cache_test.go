package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResponseCache(t *testing.T) {
	t.Run("basic operations", func(t *testing.T) {
		cache := newResponseCache(time.Minute)
		defer cache.Close()

		_, found := cache.get("missing")
		assert.False(t, found)

		cache.set("key1", "₹530 on food")
		got, found := cache.get("key1")
		assert.True(t, found)
		assert.Equal(t, "₹530 on food", got)
		assert.Equal(t, 1, cache.size())
	})

	t.Run("expiration", func(t *testing.T) {
		cache := newResponseCache(20 * time.Millisecond)
		defer cache.Close()

		cache.set("key", "value")
		time.Sleep(40 * time.Millisecond)

		_, found := cache.get("key")
		assert.False(t, found)

		cache.removeExpired(time.Now())
		assert.Equal(t, 0, cache.size())
	})

	t.Run("negative ttl disables caching", func(t *testing.T) {
		cache := newResponseCache(-1)
		assert.Nil(t, cache)

		cache.set("key", "value")
		_, found := cache.get("key")
		assert.False(t, found)
		cache.Close()
	})
}

func TestCacheKey(t *testing.T) {
	a := cacheKey(Request{System: "s", Prompt: "p"})
	assert.Equal(t, a, cacheKey(Request{System: "s", Prompt: "p"}))
	assert.NotEqual(t, a, cacheKey(Request{System: "sp", Prompt: ""}))
	assert.Len(t, a, 64)
}
