package stores

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/matterdesk/scopeauth"
)

const grantListKey = "__grants_all__"

// CachedGrantStore is a read-through cache over a GrantStore. The grant
// catalogue is read on every permission evaluation, so SQL-backed
// deployments front the store with ristretto. Mutations write through and
// invalidate; cache entries also expire on their own after ttl.
type CachedGrantStore struct {
	inner scopeauth.GrantStore
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewCachedGrantStore(inner scopeauth.GrantStore, ttl time.Duration) (*CachedGrantStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedGrantStore{inner: inner, cache: cache, ttl: ttl}, nil
}

func (c *CachedGrantStore) CreateGrant(ctx context.Context, g *scopeauth.Grant) error {
	if err := c.inner.CreateGrant(ctx, g); err != nil {
		return err
	}
	c.Invalidate(g.ID)
	return nil
}

func (c *CachedGrantStore) UpdateGrant(ctx context.Context, g *scopeauth.Grant) error {
	if err := c.inner.UpdateGrant(ctx, g); err != nil {
		return err
	}
	c.Invalidate(g.ID)
	return nil
}

func (c *CachedGrantStore) DeleteGrant(ctx context.Context, id string) error {
	if err := c.inner.DeleteGrant(ctx, id); err != nil {
		return err
	}
	c.Invalidate(id)
	return nil
}

func (c *CachedGrantStore) GetGrant(ctx context.Context, id string) (*scopeauth.Grant, error) {
	if v, ok := c.cache.Get(id); ok {
		if g, ok := v.(*scopeauth.Grant); ok {
			return g, nil
		}
	}
	g, err := c.inner.GetGrant(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetWithTTL(id, g, 1, c.ttl)
	c.cache.Wait()
	return g, nil
}

func (c *CachedGrantStore) ListGrants(ctx context.Context) ([]*scopeauth.Grant, error) {
	if v, ok := c.cache.Get(grantListKey); ok {
		if grants, ok := v.([]*scopeauth.Grant); ok {
			return grants, nil
		}
	}
	grants, err := c.inner.ListGrants(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetWithTTL(grantListKey, grants, int64(len(grants))+1, c.ttl)
	c.cache.Wait()
	return grants, nil
}

// Invalidate drops the cached entry for a grant id plus the list snapshot.
func (c *CachedGrantStore) Invalidate(id string) {
	c.cache.Del(id)
	c.cache.Del(grantListKey)
}

// Close releases the cache's background goroutines.
func (c *CachedGrantStore) Close() {
	c.cache.Close()
}
