package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"opspulse/internal/config"
	apperrors "opspulse/internal/errors"
)

type memoryEntry struct {
	data      []byte
	cachedAt  time.Time
	expiresAt time.Time
	hitCount  int
}

// Memory is an in-process TTL cache bounded by a maximum entry count. The
// oldest entry is evicted when a new key would exceed the bound.
type Memory struct {
	entries   map[string]memoryEntry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	stopChan  chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

// NewMemory creates a memory cache and starts its expiry sweeper. A zero ttl
// keeps entries until evicted.
func NewMemory(ttl time.Duration, maxSize int) *Memory {
	c := newMemory(ttl, maxSize, time.Now)
	if ttl > 0 {
		go c.cleanup(ttl)
	}
	return c
}

func newMemory(ttl time.Duration, maxSize int, now func() time.Time) *Memory {
	return &Memory{
		entries:  make(map[string]memoryEntry),
		ttl:      ttl,
		maxSize:  maxSize,
		stopChan: make(chan struct{}),
		now:      now,
	}
}

// Get decodes the entry for key into dest.
func (c *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists || c.expired(entry) {
		c.missCount++
		return false, nil
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		c.missCount++
		return false, apperrors.NewCacheError("decode cached view", err).WithContext("key", key)
	}

	entry.hitCount++
	c.entries[key] = entry
	c.hitCount++

	return true, nil
}

// Set stores value under key.
func (c *Memory) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewCacheError("encode view", err).WithContext("key", key)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return nil
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	entry := memoryEntry{data: data, cachedAt: now}
	if c.ttl > 0 {
		entry.expiresAt = now.Add(c.ttl)
	}
	c.entries[key] = entry

	return nil
}

// Invalidate removes every key with the given prefix.
func (c *Memory) Invalidate(_ context.Context, prefix string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Stats returns cache statistics
func (c *Memory) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return Stats{
		Backend:   config.CacheBackendMemory,
		Entries:   len(c.entries),
		MaxSize:   c.maxSize,
		HitCount:  c.hitCount,
		MissCount: c.missCount,
		HitRatio:  hitRatio(c.hitCount, c.missCount),
		TTL:       c.ttl.Seconds(),
	}
}

// Close stops the expiry sweeper.
func (c *Memory) Close() error {
	c.stopOnce.Do(func() { close(c.stopChan) })
	return nil
}

func (c *Memory) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt)
}

func (c *Memory) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.cachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.cachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *Memory) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			for key, entry := range c.entries {
				if c.expired(entry) {
					delete(c.entries, key)
				}
			}
			c.mutex.Unlock()
		case <-c.stopChan:
			return
		}
	}
}
