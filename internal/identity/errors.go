package identity

import "errors"

// Sentinel errors for identity resolution.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrStoreUnavailable indicates the identity store could not serve
	// a lookup or insert.
	ErrStoreUnavailable = errors.New("identity: store unavailable")

	// ErrRegistryUnavailable indicates the time-series registry call
	// failed. The affected metric stays uncached and is retried on its
	// next occurrence.
	ErrRegistryUnavailable = errors.New("identity: registry unavailable")
)
