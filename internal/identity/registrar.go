package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fathomgrid/ingest-relay/internal/infrastructure/tsdb"
)

// Assigner registers a fully qualified metric name with the external
// time-series registry. Satisfied by tsdb.Client.
type Assigner interface {
	Assign(ctx context.Context, metric string) error
}

// Registrar ensures every metric seen in a message is durably known,
// both in the identity store and in the time-series registry.
type Registrar struct {
	cache    *Cache
	store    MetricStore
	registry Assigner
}

// NewRegistrar creates a registrar over the given cache, store, and
// registry. The cache instance must be metric-scoped.
func NewRegistrar(cache *Cache, store MetricStore, registry Assigner) *Registrar {
	return &Registrar{
		cache:    cache,
		store:    store,
		registry: registry,
	}
}

// EnsureMetrics makes each named metric durably known for the
// application.
//
// Each name is handled independently: cache hit skips it outright; a
// store hit refreshes the cache; a genuinely new metric triggers the
// store insert and the registry assignment concurrently. The metric is
// cached only when both succeed, so a partial failure is retried at
// the metric's next occurrence. A registry report that the name
// already exists counts as success.
//
// This runs after downstream publication. Failures are returned for
// logging but must never unwind the already-published message.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - appID: The owning application id
//   - names: Sanitized payload field names from one message
//
// Returns:
//   - error: Joined per-name failures, nil when every name is known
func (r *Registrar) EnsureMetrics(ctx context.Context, appID int64, names []string) error {
	var errs []error

	for _, name := range names {
		if err := r.ensureMetric(ctx, appID, name); err != nil {
			errs = append(errs, fmt.Errorf("metric %q: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// ensureMetric handles a single metric name.
func (r *Registrar) ensureMetric(ctx context.Context, appID int64, name string) error {
	key := MetricKey(appID, name)

	if _, ok := r.cache.Get(key); ok {
		return nil
	}

	id, found, err := r.store.Find(ctx, appID, name)
	if err != nil {
		return err
	}
	if found {
		// Known metric; it was registered when first created.
		r.cache.Put(key, id)
		return nil
	}

	// First sight: store insert and registry assignment run
	// concurrently, and both are always attempted.
	var (
		wg        sync.WaitGroup
		insertID  int64
		insertErr error
		assignErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		insertID, insertErr = r.store.Create(ctx, appID, name)
	}()
	go func() {
		defer wg.Done()
		if err := r.registry.Assign(ctx, key); err != nil && !errors.Is(err, tsdb.ErrAlreadyAssigned) {
			assignErr = fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
		}
	}()
	wg.Wait()

	if err := errors.Join(insertErr, assignErr); err != nil {
		return err
	}

	r.cache.Put(key, insertID)
	return nil
}
