package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(maxSize int, expiration time.Duration) (*PayloadCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewPayloadCache(maxSize, expiration)
	cache.now = clock.now
	return cache, clock
}

func TestPayloadCache_GetPutExpire(t *testing.T) {
	cache, clock := newTestCache(10, time.Minute)

	_, ok := cache.Get("items")
	assert.False(t, ok)

	cache.Put("items", []byte(`{"a":1}`))
	data, ok := cache.Get("items")
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(data))

	clock.advance(2 * time.Minute)
	_, ok = cache.Get("items")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Stats().Entries)
}

func TestPayloadCache_EvictsLeastRecentlyRead(t *testing.T) {
	cache, clock := newTestCache(5, time.Hour)

	for _, key := range []string{"a", "b", "c", "d", "e"} {
		cache.Put(key, []byte(key))
		clock.advance(time.Second)
	}

	// "a" becomes the most recently read
	_, ok := cache.Get("a")
	require.True(t, ok)
	clock.advance(time.Second)

	cache.Put("f", []byte("f"))

	_, ok = cache.Get("b")
	assert.False(t, ok)
	_, ok = cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 5, cache.Stats().Entries)
}

func TestPayloadCache_DeleteAndClear(t *testing.T) {
	cache, _ := newTestCache(10, time.Hour)
	cache.Put("a", []byte("1"))
	cache.Put("b", []byte("22"))
	assert.Equal(t, 3, cache.Stats().Bytes)

	cache.Delete("a")
	_, ok := cache.Get("a")
	assert.False(t, ok)

	cache.Clear()
	assert.Equal(t, 0, cache.Stats().Entries)
}

func TestPayloadCache_ReadFileInvalidatesOnChange(t *testing.T) {
	cache, _ := newTestCache(10, time.Hour)
	path := filepath.Join(t.TempDir(), "fallback.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0o644))
	data, err := cache.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(data))

	require.NoError(t, os.WriteFile(path, []byte(`{"v":22}`), 0o644))
	data, err = cache.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":22}`, string(data))

	_, err = cache.ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
