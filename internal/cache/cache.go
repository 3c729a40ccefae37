package cache

import (
	"sync"
	"time"
)

// Cache interface defines cache operations
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
	Size() int
}

// MemoryCache implements an in-memory cache with TTL support
type MemoryCache struct {
	mu      sync.RWMutex
	items   map[string]*CacheItem
	maxSize int
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// CacheItem represents a cached item
type CacheItem struct {
	Value       interface{}
	TTL         time.Duration
	Expiration  time.Time
	AccessTime  time.Time
	AccessCount int64
}

// NewMemoryCache creates a new memory cache. A sweep removes expired items
// every cleanupInterval until Close is called; zero disables the sweep.
func NewMemoryCache(maxSize int, cleanupInterval time.Duration) *MemoryCache {
	cache := &MemoryCache{
		items:   make(map[string]*CacheItem),
		maxSize: maxSize,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go cache.cleanupExpired(cleanupInterval)
	}

	return cache
}

// Get retrieves a value from cache
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	return c.get(key, false)
}

// Touch retrieves a value and restarts its TTL, giving idle-expiry semantics
func (c *MemoryCache) Touch(key string) (interface{}, bool) {
	return c.get(key, true)
}

func (c *MemoryCache) get(key string, extend bool) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	now := c.now()
	if now.After(item.Expiration) {
		delete(c.items, key)
		return nil, false
	}

	item.AccessTime = now
	item.AccessCount++
	if extend {
		item.Expiration = now.Add(item.TTL)
	}

	return item.Value, true
}

// Set stores a value in cache with TTL
func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check cache size and evict if necessary
	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictLRU()
	}

	now := c.now()
	c.items[key] = &CacheItem{
		Value:      value,
		TTL:        ttl,
		Expiration: now.Add(ttl),
		AccessTime: now,
	}
}

// Delete removes a key from cache
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items from cache
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*CacheItem)
}

// Size returns the number of items in cache
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup routine
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// evictLRU removes the least recently used item
func (c *MemoryCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.AccessTime.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.AccessTime
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// RemoveExpired deletes every expired item and returns how many were removed
func (c *MemoryCache) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.items {
		if now.After(item.Expiration) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// cleanupExpired removes expired items periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.RemoveExpired()
		case <-c.stop:
			return
		}
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	Evictions int64     `json:"evictions"`
	Size      int       `json:"size"`
	MaxSize   int       `json:"max_size"`
	HitRate   float64   `json:"hit_rate"`
	LastReset time.Time `json:"last_reset"`
}

// StatsCache wraps a cache with statistics tracking
type StatsCache struct {
	cache Cache
	mu    sync.Mutex
	stats CacheStats
}

// NewStatsCache creates a cache with statistics
func NewStatsCache(cache Cache, maxSize int) *StatsCache {
	return &StatsCache{
		cache: cache,
		stats: CacheStats{
			MaxSize:   maxSize,
			LastReset: time.Now(),
		},
	}
}

// Get retrieves value and updates statistics
func (sc *StatsCache) Get(key string) (interface{}, bool) {
	value, found := sc.cache.Get(key)

	sc.mu.Lock()
	if found {
		sc.stats.Hits++
	} else {
		sc.stats.Misses++
	}
	sc.updateHitRate()
	sc.mu.Unlock()

	return value, found
}

// Set stores value and updates statistics
func (sc *StatsCache) Set(key string, value interface{}, ttl time.Duration) {
	sc.cache.Set(key, value, ttl)
}

// Delete removes key from cache
func (sc *StatsCache) Delete(key string) {
	sc.cache.Delete(key)

	sc.mu.Lock()
	sc.stats.Evictions++
	sc.mu.Unlock()
}

// Clear removes all items from cache
func (sc *StatsCache) Clear() {
	sc.cache.Clear()

	sc.mu.Lock()
	sc.stats.Hits = 0
	sc.stats.Misses = 0
	sc.stats.Evictions = 0
	sc.stats.LastReset = time.Now()
	sc.mu.Unlock()
}

// Size returns cache size
func (sc *StatsCache) Size() int {
	return sc.cache.Size()
}

// GetStats returns cache statistics
func (sc *StatsCache) GetStats() CacheStats {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.stats.Size = sc.cache.Size()
	return sc.stats
}

// updateHitRate calculates the cache hit rate
func (sc *StatsCache) updateHitRate() {
	total := sc.stats.Hits + sc.stats.Misses
	if total > 0 {
		sc.stats.HitRate = float64(sc.stats.Hits) / float64(total)
	}
}
