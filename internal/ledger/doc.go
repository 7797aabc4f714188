// Package ledger implements the hydration ledger, the aggregate root holding
// every persisted piece of hydration-tracking state.
//
// ARCHITECTURE:
//
// Event-Applied Mutations:
// Each mutation operation (AddDrink, UpdateProfile, UpdateSettings,
// ClearHistory, CompleteOnboarding) builds a typed Event and applies it under
// the ledger's write lock. The same Apply path is used to rebuild a ledger
// from a recorded mutation log, so replay and live mutation cannot drift.
//
// Returned events describe the post-mutation change and are what downstream
// hooks (the reminder scheduler) consume. There is no string dispatch: the
// Event interface is sealed and callers switch on the concrete type.
//
// INVARIANTS:
//   - drinkHistory is append-only; entries are never edited
//   - dailyStats is an index over drinkHistory keyed by local calendar date:
//     dailyStats[d].totalVolume == sum(volume of history entries on d)
//   - settings.dailyGoal and settings.reminderIntervalMinutes stay positive
//
// Thread-safety: every exported method is safe for concurrent use. A single
// mutation is never partially visible.
package ledger
