// Package scheduler decides which reminder notifications to schedule or
// cancel in reaction to ledger mutations.
//
// Each notification Kind is a two-state machine: Unscheduled, or
// Scheduled(fire time). The scheduler owns no timers. Its only external
// effect is handing Notification values (or a cancel-all) to a Notifier,
// which owns actual delivery.
//
// Transitions:
//   - ProfileUpdated with a wake/bed time: Scheduled(next occurrence), repeating daily
//   - DrinkAdded (Beer, Wine, Spirits): afterAlcohol -> Scheduled(now + 30m)
//   - DrinkAdded (any): inactivity -> Scheduled(now + 3h)
//   - SettingsUpdated notifications=false: every kind -> Unscheduled, cancel-all
//   - SettingsUpdated notifications false->true: sleep-schedule kinds re-armed
//
// Every scheduling transition is suppressed while settings.notifications is
// false. Rescheduling a Scheduled kind replaces its fire time; a Notifier
// must keep at most one pending notification per kind.
package scheduler
