// Package harness runs YAML conformance scenarios against the hydration engine.
//
// Each scenario runs in a fresh in-memory store with a fixed wall clock,
// sequential drink ids and a seeded message picker, so the resulting trace is
// reproducible and can be compared against a golden file.
//
// # Scenario Format
//
//	name: alcohol_reminders
//	description: "Beer arms the after-alcohol and inactivity reminders"
//	start: "2026-03-04T08:00:00Z"
//	timezone: UTC
//	setup:
//	  - action: update_profile
//	    profile:
//	      weight: "70"
//	flow:
//	  - action: add_drink
//	    beverage: Beer
//	    volume: 330
//	    expect:
//	      hydration:
//	        adjusted_daily_goal: 2780
//	  - action: update_settings
//	    advance: 30m
//	    settings:
//	      notifications: false
//	assertions:
//	  - type: notifier_count
//	    op: cancel_all
//	    count: 1
//
// Actions: add_drink, update_profile, update_settings, clear_history, onboard
// and wait. Any step may carry an advance duration, applied to the clock
// before the action runs.
//
// Assertion types:
//   - scheduled: kind is pending in both the scheduler and the outbox
//   - unscheduled: kind (or, with no kind, every reminder) is not pending
//   - notifier_count: the Notifier saw op exactly count times
//   - trace_order: actions succeeded in the given relative order
//   - final_state: subset match on the final state map
//   - replay: the mutation log replays to the stored snapshot
//
// # Trace
//
// Every step (setup included) adds one TraceEvent with the clock time, the
// outcome, the mutation seq, today's hydration figures and the Notifier calls
// the step caused. Reminder message text is left out of the trace.
package harness
