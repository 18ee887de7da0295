// Package identity resolves opaque device credentials into durable
// numeric identifiers.
//
// Two identity classes exist: applications, keyed by (username,
// app_name), and metrics, keyed by (app_id, metric). Both follow the
// same discipline: a read-through TTL cache in front of the SQLite
// store, with first-sight creation made idempotent by the store's
// UNIQUE constraints rather than by application-level locking. Two
// concurrent pipelines racing to create the same identity both
// converge on the single durable row.
//
// The cache is a pure accelerant. An entry is written only after the
// backing row is confirmed present, so a cache hit always corresponds
// to durable state.
//
// The Registrar additionally announces new metrics to the external
// time-series registry. Registration is best-effort bookkeeping: a
// failure leaves the metric uncached so a later message retries, and
// never unwinds a message that has already been published.
package identity
