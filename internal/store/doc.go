// Package store provides SQLite-backed durable storage for check runs.
//
// The store is an append-only verdict log with:
//   - Runs: one record per check of a unit
//   - Verdicts: one record per (run, method, root), ok or fail
//
// # Patterns
//
// Idempotent writes
//   - Runs are keyed by ID and verdicts by UNIQUE(run_id, method, root_index)
//   - Writes use ON CONFLICT DO NOTHING; the first verdict for a root wins
//
// Logical time
//   - Runs and verdicts are ordered by seq INTEGER, never by wall time
//   - Run IDs are UUIDv7 and sort by creation, but nothing relies on that
//
// Deterministic queries
//   - Verdict queries use ORDER BY seq ASC, method COLLATE BINARY ASC, root_index ASC
//   - Reads return empty slices, not nil
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
