package harness

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/roach88/myh2o/internal/engine"
	"github.com/roach88/myh2o/internal/ledger"
	"github.com/roach88/myh2o/internal/recommend"
	"github.com/roach88/myh2o/internal/scheduler"
	"github.com/roach88/myh2o/internal/store"
)

// AssertionContext carries what assertions inspect after the flow.
type AssertionContext struct {
	Ctx      context.Context
	Engine   *engine.Engine
	Store    *store.Store
	Notifier *RecordingNotifier
	Location *time.Location
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s seq=%d\n", i+1, event.At, event.Action, event.Outcome, event.Seq)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertScheduled:
		return assertScheduled(result.Trace, a, actx)
	case AssertUnscheduled:
		return assertUnscheduled(result.Trace, a, actx)
	case AssertNotifierCount:
		return assertNotifierCount(result.Trace, a, actx)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	case AssertReplay:
		return assertReplay(result.Trace, a, actx)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// pendingKinds returns the kinds pending in the scheduler and in the outbox.
func pendingKinds(actx *AssertionContext) (map[string]scheduler.Notification, map[string]scheduler.Notification, error) {
	sched := make(map[string]scheduler.Notification)
	for _, n := range actx.Engine.Pending() {
		sched[string(n.Kind)] = n
	}

	outbox := make(map[string]scheduler.Notification)
	pending, err := actx.Store.Outbox(actx.Engine.Key()).Pending(actx.Ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read outbox: %w", err)
	}
	for _, n := range pending {
		outbox[string(n.Kind)] = n
	}
	return sched, outbox, nil
}

// assertScheduled checks that kind is pending in both the scheduler and the
// outbox, optionally with the given fire time and repeat flag.
func assertScheduled(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	sched, outbox, err := pendingKinds(actx)
	if err != nil {
		return err
	}

	n, ok := sched[a.Kind]
	if !ok {
		return &AssertionError{
			Type:     AssertScheduled,
			Expected: fmt.Sprintf("%s scheduled", a.Kind),
			Actual:   fmt.Sprintf("pending kinds: %v", sortedKeys(sched)),
			Trace:    trace,
		}
	}
	stored, ok := outbox[a.Kind]
	if !ok {
		return &AssertionError{
			Type:     AssertScheduled,
			Expected: fmt.Sprintf("%s in outbox", a.Kind),
			Actual:   fmt.Sprintf("outbox kinds: %v", sortedKeys(outbox)),
			Trace:    trace,
		}
	}

	if a.FireAt != "" {
		want, _ := time.Parse(time.RFC3339, a.FireAt)
		if !n.FireAt.Equal(want) || !stored.FireAt.Equal(want) {
			return &AssertionError{
				Type:     AssertScheduled,
				Expected: fmt.Sprintf("%s fires at %s", a.Kind, a.FireAt),
				Actual: fmt.Sprintf("scheduler %s, outbox %s",
					n.FireAt.In(actx.Location).Format(time.RFC3339),
					stored.FireAt.In(actx.Location).Format(time.RFC3339)),
				Trace: trace,
			}
		}
	}
	if a.RepeatDaily != nil && (n.RepeatDaily != *a.RepeatDaily || stored.RepeatDaily != *a.RepeatDaily) {
		return &AssertionError{
			Type:     AssertScheduled,
			Expected: fmt.Sprintf("%s repeat_daily=%v", a.Kind, *a.RepeatDaily),
			Actual:   fmt.Sprintf("scheduler %v, outbox %v", n.RepeatDaily, stored.RepeatDaily),
			Trace:    trace,
		}
	}
	return nil
}

// assertUnscheduled checks that kind, or every kind when Kind is empty, is
// pending in neither the scheduler nor the outbox.
func assertUnscheduled(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	sched, outbox, err := pendingKinds(actx)
	if err != nil {
		return err
	}

	if a.Kind == "" {
		if len(sched) > 0 || len(outbox) > 0 {
			return &AssertionError{
				Type:     AssertUnscheduled,
				Expected: "no pending reminders",
				Actual:   fmt.Sprintf("scheduler %v, outbox %v", sortedKeys(sched), sortedKeys(outbox)),
				Trace:    trace,
			}
		}
		return nil
	}

	_, inSched := sched[a.Kind]
	_, inOutbox := outbox[a.Kind]
	if inSched || inOutbox {
		return &AssertionError{
			Type:     AssertUnscheduled,
			Expected: fmt.Sprintf("%s unscheduled", a.Kind),
			Actual:   fmt.Sprintf("pending in scheduler=%v outbox=%v", inSched, inOutbox),
			Trace:    trace,
		}
	}
	return nil
}

// assertNotifierCount checks how many times the Notifier saw op.
func assertNotifierCount(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	got := actx.Notifier.Count(a.Op, a.Kind)
	if got != *a.Count {
		target := a.Op
		if a.Kind != "" {
			target += " " + a.Kind
		}
		return &AssertionError{
			Type:     AssertNotifierCount,
			Expected: fmt.Sprintf("%s called %d times", target, *a.Count),
			Actual:   fmt.Sprintf("called %d times", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that actions succeeded in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed).
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	// First successful position of each expected action
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Outcome != OutcomeOK {
			continue
		}
		if slices.Contains(a.Actions, event.Action) && positions[event.Action] == 0 {
			positions[event.Action] = i + 1 // 1-indexed for readability
		}
	}

	for _, action := range a.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", a.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Actions); i++ {
		prev, curr := a.Actions[i-1], a.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", a.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertFinalState compares the expected keys against the captured state.
// Values are compared by their printed form, so 2700 matches 2700.0.
func assertFinalState(result *Result, a Assertion) error {
	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := fmt.Sprint(a.Expect[key])
		got, ok := result.State[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %s", key, want),
				Actual:   "key not captured",
			}
		}
		if fmt.Sprint(got) != want {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %s", key, want),
				Actual:   fmt.Sprintf("%s = %v", key, got),
			}
		}
	}
	return nil
}

// assertReplay checks that the mutation log replays to the stored snapshot.
func assertReplay(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	res, err := actx.Engine.Replay(actx.Ctx)
	if err != nil {
		return &AssertionError{
			Type:     AssertReplay,
			Expected: "log replays to stored snapshot",
			Actual:   err.Error(),
			Trace:    trace,
		}
	}
	if a.Count != nil && res.Mutations != *a.Count {
		return &AssertionError{
			Type:     AssertReplay,
			Expected: fmt.Sprintf("%d mutations", *a.Count),
			Actual:   fmt.Sprintf("%d mutations", res.Mutations),
			Trace:    trace,
		}
	}
	return nil
}

// stateKeys are the final_state keys a scenario may assert on.
var stateKeys = map[string]func(v stateView) any{
	"daily_goal":          func(v stateView) any { return v.doc.Settings.DailyGoal },
	"notifications":       func(v stateView) any { return v.doc.Settings.Notifications },
	"reminder_interval":   func(v stateView) any { return v.doc.Settings.ReminderIntervalMinutes },
	"onboarding":          func(v stateView) any { return v.doc.OnBoarding },
	"drink_count":         func(v stateView) any { return len(v.doc.DrinkHistory) },
	"day_count":           func(v stateView) any { return len(v.doc.DailyStats) },
	"name":                func(v stateView) any { return v.doc.Profile.Name },
	"weight":              func(v stateView) any { return v.doc.Profile.Weight },
	"weight_unit":         func(v stateView) any { return string(v.doc.Profile.WeightUnit) },
	"total_today":         func(v stateView) any { return v.hydration.TotalDrankToday },
	"adjusted_daily_goal": func(v stateView) any { return v.hydration.AdjustedDailyGoal },
	"progress_percent":    func(v stateView) any { return v.hydration.ProgressPercent },
	"pending":             func(v stateView) any { return v.pending },
	"mutations":           func(v stateView) any { return v.mutations },
}

type stateView struct {
	doc       ledger.Document
	hydration recommend.Hydration
	pending   int
	mutations int
}

func captureState(ctx context.Context, eng *engine.Engine) (map[string]any, error) {
	muts, err := eng.Mutations(ctx)
	if err != nil {
		return nil, err
	}
	v := stateView{
		doc:       eng.Document(),
		hydration: eng.Recommendations(),
		pending:   len(eng.Pending()),
		mutations: len(muts),
	}

	state := make(map[string]any, len(stateKeys))
	for key, get := range stateKeys {
		state[key] = get(v)
	}
	return state, nil
}

func sortedKeys(m map[string]scheduler.Notification) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
