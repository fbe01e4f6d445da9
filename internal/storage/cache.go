// internal/storage/cache.go
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// PayloadCache keeps raw response bodies and file contents in memory
type PayloadCache struct {
	cache      map[string]*PayloadEntry
	mutex      sync.RWMutex
	maxSize    int           // max entries
	expiration time.Duration // entry lifetime

	now func() time.Time
}

// PayloadEntry is one cached payload
type PayloadEntry struct {
	Data      []byte
	CreatedAt time.Time
	LastRead  time.Time
	FileInfo  os.FileInfo // set for entries loaded by ReadFile
}

// CacheStats describes the cache contents
type CacheStats struct {
	Entries    int           `json:"entries"`
	Bytes      int           `json:"bytes"`
	MaxSize    int           `json:"max_size"`
	Expiration time.Duration `json:"expiration"`
}

// NewPayloadCache creates a cache; non-positive arguments fall back to 100 entries and 5 minutes
func NewPayloadCache(maxSize int, expiration time.Duration) *PayloadCache {
	if maxSize <= 0 {
		maxSize = 100
	}

	if expiration <= 0 {
		expiration = 5 * time.Minute
	}

	return &PayloadCache{
		cache:      make(map[string]*PayloadEntry),
		maxSize:    maxSize,
		expiration: expiration,
		now:        time.Now,
	}
}

// Get returns a fresh entry's bytes. The slice is shared, callers must not modify it.
func (c *PayloadCache) Get(key string) ([]byte, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.CreatedAt) > c.expiration {
		delete(c.cache, key)
		return nil, false
	}

	entry.LastRead = c.now()
	return entry.Data, true
}

// Put stores data under key, evicting the least recently read entries when full
func (c *PayloadCache) Put(key string, data []byte) {
	c.store(key, &PayloadEntry{Data: data})
}

func (c *PayloadCache) store(key string, entry *PayloadEntry) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	entry.CreatedAt = now
	entry.LastRead = now
	c.cache[key] = entry

	if len(c.cache) > c.maxSize {
		c.cleanupLRU(max(1, c.maxSize/5))
	}
}

// ReadFile returns the file's contents, re-reading it when it changed on disk or the entry expired
func (c *PayloadCache) ReadFile(path string) ([]byte, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", path, err)
	}

	c.mutex.RLock()
	entry, exists := c.cache[absPath]
	c.mutex.RUnlock()

	if exists && entry.FileInfo != nil {
		fileInfo, err := os.Stat(absPath)
		if err == nil {
			isModified := !fileInfo.ModTime().Equal(entry.FileInfo.ModTime()) ||
				fileInfo.Size() != entry.FileInfo.Size()
			isExpired := c.now().Sub(entry.CreatedAt) > c.expiration

			if !isModified && !isExpired {
				c.mutex.Lock()
				entry.LastRead = c.now()
				c.mutex.Unlock()
				return entry.Data, nil
			}
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", absPath, err)
	}

	fileInfo, err := os.Stat(absPath)
	if err != nil {
		// still usable, just not cached
		return data, nil
	}

	c.store(absPath, &PayloadEntry{Data: data, FileInfo: fileInfo})
	return data, nil
}

// Delete removes one entry
func (c *PayloadCache) Delete(key string) {
	c.mutex.Lock()
	delete(c.cache, key)
	c.mutex.Unlock()
}

// Clear drops every entry
func (c *PayloadCache) Clear() {
	c.mutex.Lock()
	c.cache = make(map[string]*PayloadEntry)
	c.mutex.Unlock()
}

// Stats returns entry count and total payload size
func (c *PayloadCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := CacheStats{Entries: len(c.cache), MaxSize: c.maxSize, Expiration: c.expiration}
	for _, entry := range c.cache {
		stats.Bytes += len(entry.Data)
	}
	return stats
}

// cleanupLRU drops the count least recently read entries; callers hold the write lock
func (c *PayloadCache) cleanupLRU(count int) {
	type keyAge struct {
		key  string
		time time.Time
	}

	entries := make([]keyAge, 0, len(c.cache))
	for k, v := range c.cache {
		entries = append(entries, keyAge{k, v.LastRead})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].time.Before(entries[j].time)
	})

	for i := 0; i < min(count, len(entries)); i++ {
		delete(c.cache, entries[i].key)
	}
}
