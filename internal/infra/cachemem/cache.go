package cachemem

import (
	"context"
	"sync"
	"time"

	"notary/internal/domain"
	"notary/internal/usecase"
)

// Cache holds ledger lookup results for a short TTL so the verification
// fallback path does not query the ledger on every miss.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	asset     domain.ContentAsset
	expiresAt time.Time
	hasExpiry bool
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Get(ctx context.Context, fingerprint string) (*domain.ContentAsset, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[fingerprint]
	if !ok {
		return nil, false, nil
	}
	if entry.hasExpiry && time.Now().After(entry.expiresAt) {
		delete(c.entries, fingerprint)
		return nil, false, nil
	}
	asset := entry.asset
	return &asset, true, nil
}

func (c *Cache) Put(ctx context.Context, fingerprint string, asset domain.ContentAsset, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{asset: asset}
	if ttl > 0 {
		entry.hasExpiry = true
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[fingerprint] = entry
	return nil
}

var _ usecase.AssetCache = (*Cache)(nil)
