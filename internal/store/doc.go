// Package store provides a SQLite-backed, append-only log of submitted
// allocations.
//
// A submission records the flattened result of an allocation tree: leaf
// amounts in pennies and leaf percentages of the total. Trees themselves are
// never persisted.
//
// # Idempotency
//
// Each submission carries a digest of its canonical JSON content
// (internal/canonical, domain "allot/submission/v1"). The digest column is
// UNIQUE and inserts use ON CONFLICT DO NOTHING, so submitting the same
// allocation twice returns the first row's ID.
//
// # Ordering
//
// Ordering uses the seq column (a logical clock), never wall time. Listing
// queries use ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
