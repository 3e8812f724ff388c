package discover

import (
	"sync"
	"time"

	"github.com/bluele/gcache"
)

// failedResolverCacheSize caps the number of distinct resolver addresses
// tracked at once. A host's nameserver list plus a synthesized router
// fallback is never more than a handful of entries; this is generous
// headroom for an LRU eviction policy that should in practice never evict.
const failedResolverCacheSize = 64

// FailedResolverCache is a time-bounded set of resolver addresses to skip
// on subsequent discovery runs. It is single-owner: only DiscoveryEngine.
// Discover reads and writes it, so it needs no external synchronization
// beyond its own mutex (kept for defense against concurrent discover()
// calls on the same engine).
type FailedResolverCache struct {
	mu            sync.Mutex
	cache         gcache.Cache
	lastClearedAt time.Time
}

// NewFailedResolverCache returns an empty cache, considered cleared as of
// now.
func NewFailedResolverCache(now time.Time) *FailedResolverCache {
	return &FailedResolverCache{
		cache:         gcache.New(failedResolverCacheSize).LRU().Build(),
		lastClearedAt: now,
	}
}

// Contains reports whether resolver is currently marked as failed.
func (c *FailedResolverCache) Contains(resolver string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Has(resolver)
}

// AddAll marks every resolver in resolvers as failed.
func (c *FailedResolverCache) AddAll(resolvers map[string]struct{}) {
	if len(resolvers) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for r := range resolvers {
		_ = c.cache.Set(r, struct{}{})
	}
}

// MaybeClear empties the cache if CacheClearInterval has elapsed since it
// was last cleared.
func (c *FailedResolverCache) MaybeClear(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Sub(c.lastClearedAt) > CacheClearInterval {
		c.cache.Purge()
		c.lastClearedAt = now
	}
}
