package checkpoint

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/filecoin-project/go-clock"
)

// DefaultCacheTTL bounds how long a fetched checkpoint is reused.
const DefaultCacheTTL = 5 * time.Minute

type cacheKey struct {
	origin    uint32
	validator common.Address
	index     uint32
}

type cacheEntry struct {
	signed  *SignedCheckpoint
	expires time.Time
}

// Cache holds fetched checkpoints keyed by origin, validator and index.
// Only successful fetches are cached.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[cacheKey]cacheEntry
}

func NewCache(ttl time.Duration, clk clock.Clock) *Cache {
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		clock:   clk,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *Cache) Get(origin uint32, validator common.Address, index uint32) (*SignedCheckpoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{origin: origin, validator: validator, index: index}
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.signed, true
}

func (c *Cache) Put(origin uint32, validator common.Address, index uint32, signed *SignedCheckpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey{origin: origin, validator: validator, index: index}] = cacheEntry{
		signed:  signed,
		expires: c.clock.Now().Add(c.ttl),
	}
}

// Invalidate drops every entry of origin.
func (c *Cache) Invalidate(origin uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.origin == origin {
			delete(c.entries, key)
		}
	}
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Wrap returns a Fetcher for origin that consults the cache before inner.
func (c *Cache) Wrap(origin uint32, inner Fetcher) Fetcher {
	return &cachedFetcher{cache: c, origin: origin, inner: inner}
}

type cachedFetcher struct {
	cache  *Cache
	origin uint32
	inner  Fetcher
}

func (f *cachedFetcher) FetchCheckpoint(ctx context.Context, validator common.Address, index uint32) (*SignedCheckpoint, error) {
	if signed, ok := f.cache.Get(f.origin, validator, index); ok {
		return signed, nil
	}
	signed, err := f.inner.FetchCheckpoint(ctx, validator, index)
	if err != nil {
		return nil, err
	}
	f.cache.Put(f.origin, validator, index, signed)
	return signed, nil
}
