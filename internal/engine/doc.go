// Package engine implements the MyH2o hydration tracker.
//
// The engine owns one Ledger, one Scheduler and the Store that persists them.
// Every user intent (add drink, update profile, ...) is a transaction.
//
// ARCHITECTURE:
//
// Serialized Intents:
// All intents run under a single mutex, so there is exactly one logical writer
// at a time. This ensures:
// - The mutation log order is the order intents were accepted
// - Hooks observe the ledger state after the mutation they react to
// - Replay of the log reproduces the stored snapshot
//
// Intent Flow:
// 1. The ledger validates and applies the mutation, producing a typed Event
// 2. The event is stamped with the next seq from the logical Clock
// 3. Snapshot and mutation are committed to the store in one SQL transaction
// 4. Hooks (the Scheduler) handle the event in registration order
//
// A failed commit reloads the ledger from the last committed snapshot, so an
// intent either lands completely or not at all. Hook failures happen after
// the commit; they are logged and do not undo the mutation.
//
// CRITICAL PATTERNS:
//
// Logical Clock
// Mutations are stamped with a monotonic seq from Clock.Next().
// NEVER use wall-clock timestamps for ordering.
//
// Typed Events
// Hooks switch on the concrete ledger.Event type. There is no string dispatch.
package engine
