// Package tsdb registers metric names with the time-series registry.
//
// The registry is an OpenTSDB-compatible UID service. Before a metric
// can carry data points downstream, its fully qualified name
// (app_id.metric) must be assigned a UID via the registry's assign
// endpoint. Assignment is idempotent from the relay's point of view:
// a name that already has a UID is reported as ErrAlreadyAssigned,
// which callers treat the same as a fresh assignment.
//
// The registry exposes a plain HTTP GET API and has no Go SDK, so the
// client is a thin net/http wrapper with per-call timeouts.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package tsdb
