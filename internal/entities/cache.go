package entities

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 1024

// CachedResolver wraps a Resolver with an LRU cache. Warm performs one
// bulk fetch so per-camera initialization never hits the registry more
// than once per batch.
type CachedResolver struct {
	inner Resolver
	cache *lru.Cache[string, *Entity]
}

func NewCachedResolver(inner Resolver) *CachedResolver {
	c, _ := lru.New[string, *Entity](defaultCacheSize)
	return &CachedResolver{inner: inner, cache: c}
}

// Warm bulk-fetches all entities into the cache.
func (r *CachedResolver) Warm(ctx context.Context) error {
	all, err := r.inner.ResolveAll(ctx)
	if err != nil {
		return err
	}
	for _, e := range all {
		r.cache.Add(e.ID, e)
	}
	return nil
}

func (r *CachedResolver) Resolve(ctx context.Context, entityID string) (*Entity, error) {
	if e, ok := r.cache.Get(entityID); ok {
		return e, nil
	}
	e, err := r.inner.Resolve(ctx, entityID)
	if err != nil {
		return nil, err
	}
	r.cache.Add(entityID, e)
	return e, nil
}

func (r *CachedResolver) ResolveAll(ctx context.Context) ([]*Entity, error) {
	return r.inner.ResolveAll(ctx)
}
