package identity

import (
	"context"
)

// Resolver resolves (username, app_name) pairs to durable application
// ids through the cache and store.
type Resolver struct {
	cache *Cache
	store AppStore
}

// NewResolver creates a resolver over the given cache and store.
// The cache instance must be application-scoped; sharing it with the
// metric cache would mix key namespaces.
func NewResolver(cache *Cache, store AppStore) *Resolver {
	return &Resolver{
		cache: cache,
		store: store,
	}
}

// ResolveApp returns the durable id for a (username, app_name) pair,
// creating it on first sight.
//
// Resolution order: cache, then store lookup, then insert-or-fetch
// creation. The resolved id is cached on every store round trip, found
// or created alike.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - username: Authenticated principal owning the application
//   - appName: Application name from the inbound message
//
// Returns:
//   - int64: The durable application id
//   - error: Wrapped ErrStoreUnavailable if the store cannot answer
func (r *Resolver) ResolveApp(ctx context.Context, username, appName string) (int64, error) {
	key := AppKey(username, appName)

	if id, ok := r.cache.Get(key); ok {
		return id, nil
	}

	id, found, err := r.store.Find(ctx, username, appName)
	if err != nil {
		return 0, err
	}

	if !found {
		id, err = r.store.Create(ctx, username, appName)
		if err != nil {
			return 0, err
		}
	}

	r.cache.Put(key, id)
	return id, nil
}
