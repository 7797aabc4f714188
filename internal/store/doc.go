// Package store provides SQLite-backed durable storage for a MyH2o ledger.
//
// The store keeps three tables per ledger key:
//   - ledger_state: the latest serialized ledger document and its seq
//   - mutations: append-only log of ledger events (replay source)
//   - notifications: the pending reminder outbox, one row per kind
//
// # Critical Patterns
//
// Logical Identity and Time
//   - Mutations are ordered by seq INTEGER (logical clock), never by
//     recorded_at
//   - Replaying mutations over the stored base document must reproduce the
//     stored snapshot
//
// Atomic Commit
//   - Commit writes the snapshot and appends the mutation in a single
//     transaction; a failed commit leaves both untouched
//
// Outbox Replacement
//   - Scheduling a reminder kind upserts its row; CancelAll deletes every row
//     for the ledger key
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
