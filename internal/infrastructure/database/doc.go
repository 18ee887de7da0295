// Package database provides SQLite connectivity for the identity store.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations embedded into the binary
//   - Connection lifecycle and health checks
//
// The identity store is deliberately small: two append-only tables
// (apps, metrics) whose UNIQUE constraints provide insert-or-fetch
// semantics for concurrent identity creation. The relay relies on the
// constraints, not application-level locking, to guarantee at most one
// row per logical identity under racing first-sight messages.
//
// Security considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
package database
