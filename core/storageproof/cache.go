package storageproof

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ValidityCondition is an additional, named predicate a cache entry must
// satisfy to be considered live, beyond plain expiry (restored from the
// Rust original's CacheValidityCondition; spec §4.4 SUPPLEMENTED FEATURES).
type ValidityCondition struct {
	Name  string
	Check func(entry *CacheInfo) bool
}

// CacheInfo is the cached record for one resolved dependency.
type CacheInfo struct {
	Value       []byte
	BlockHeight uint64
	CachedAt    time.Time
	Expiry      Expiry
	Conditions  []ValidityCondition
}

// live reports whether the entry is still usable as of now, given the
// current chain height currentHeight.
func (c *CacheInfo) live(now time.Time, currentHeight uint64) bool {
	switch c.Expiry.Kind {
	case ExpiryNever:
		// still subject to explicit conditions below
	case ExpiryTTL:
		if now.Sub(c.CachedAt) >= c.Expiry.TTL {
			return false
		}
	case ExpiryBlockCount:
		if currentHeight >= c.BlockHeight+c.Expiry.BlockCount {
			return false
		}
	case ExpiryUntilNextBlock:
		if currentHeight > c.BlockHeight {
			return false
		}
	case ExpiryOnStorageUpdate:
		// invalidated explicitly by the caller via Cache.Invalidate; a
		// plain liveness check never expires it on its own.
	}
	for _, cond := range c.Conditions {
		if cond.Check != nil && !cond.Check(c) {
			return false
		}
	}
	return true
}

// Cache is a bounded LRU of resolved dependency values, keyed by
// dependency ID (spec §4.4 "Bounded LRU of size cache_size").
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, *CacheInfo]
}

// NewCache constructs a cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[string, *CacheInfo](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the cached entry for depID if present and still live as of
// now/currentHeight; otherwise it reports a miss (and evicts a dead
// entry eagerly).
func (c *Cache) Get(depID string, now time.Time, currentHeight uint64) (*CacheInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.lru.Get(depID)
	if !ok {
		return nil, false
	}
	if !entry.live(now, currentHeight) {
		c.lru.Remove(depID)
		return nil, false
	}
	return entry, true
}

// Put installs/overwrites the cache entry for depID, evicting the
// least-recently-used entry if the cache is full.
func (c *Cache) Put(depID string, entry *CacheInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(depID, entry)
}

// Invalidate removes depID's cache entry, e.g. on an OnStorageUpdate
// notification from the backend.
func (c *Cache) Invalidate(depID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(depID)
}

// AdvanceBlock evicts every entry that is no longer live at newHeight:
// UntilNextBlock and BlockCount entries the height has moved past,
// expired TTL entries, and entries failing a validity condition.
func (c *Cache) AdvanceBlock(now time.Time, newHeight uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.lru.Keys() {
		entry, ok := c.lru.Peek(key)
		if !ok {
			continue
		}
		if !entry.live(now, newHeight) {
			c.lru.Remove(key)
		}
	}
}
