package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okEvent(action string) TraceEvent {
	return TraceEvent{Phase: phaseFlow, Action: action, Outcome: OutcomeOK}
}

func TestAssertTraceOrder_Pass(t *testing.T) {
	trace := []TraceEvent{okEvent("update_profile"), okEvent("onboard"), okEvent("add_drink")}

	err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Actions: []string{"update_profile", "add_drink"}})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_WrongOrder(t *testing.T) {
	trace := []TraceEvent{okEvent("add_drink"), okEvent("update_profile")}

	err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Actions: []string{"update_profile", "add_drink"}})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceOrder, ae.Type)
	assert.Contains(t, ae.Actual, "update_profile (pos 2) should be before add_drink (pos 1)")
}

func TestAssertTraceOrder_FailedStepsIgnored(t *testing.T) {
	failed := okEvent("add_drink")
	failed.Outcome = OutcomeValidation
	trace := []TraceEvent{failed, okEvent("onboard")}

	err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Actions: []string{"add_drink", "onboard"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing action: add_drink")
}

func TestAssertFinalState(t *testing.T) {
	result := NewResult()
	result.State = map[string]any{
		"daily_goal":          2450,
		"adjusted_daily_goal": 2700.0,
		"notifications":       true,
		"weight_unit":         "kg",
	}

	err := assertFinalState(result, Assertion{Type: AssertFinalState, Expect: map[string]any{
		"daily_goal":          2450,
		"adjusted_daily_goal": 2700,
		"notifications":       true,
		"weight_unit":         "kg",
	}})
	assert.NoError(t, err)

	err = assertFinalState(result, Assertion{Type: AssertFinalState, Expect: map[string]any{"daily_goal": 2300}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: daily_goal = 2300")
	assert.Contains(t, err.Error(), "Actual: daily_goal = 2450")

	err = assertFinalState(result, Assertion{Type: AssertFinalState, Expect: map[string]any{"pending": 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key not captured")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertScheduled,
		Expected: "inactivity scheduled",
		Actual:   "pending kinds: []",
		Trace: []TraceEvent{{
			Action:  "add_drink",
			At:      "2026-03-04T08:00:00Z",
			Outcome: OutcomeValidation,
		}},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: scheduled")
	assert.Contains(t, msg, "Expected: inactivity scheduled")
	assert.Contains(t, msg, "[1] 2026-03-04T08:00:00Z add_drink validation seq=0")
}

func TestEvaluateAssertions_AgainstEngine(t *testing.T) {
	scenario := newScenario([]Step{
		{Action: ActionAddDrink, Beverage: "Beer", Volume: 500},
	},
		Assertion{Type: AssertScheduled, Kind: "afterAlcohol", FireAt: "2026-03-04T08:30:00Z", RepeatDaily: boolPtr(false)},
		Assertion{Type: AssertScheduled, Kind: "inactivity", FireAt: "2026-03-04T09:00:00Z"},
		Assertion{Type: AssertUnscheduled, Kind: "workdayWake"},
		Assertion{Type: AssertUnscheduled},
		Assertion{Type: AssertNotifierCount, Op: OpScheduleOnce, Count: intPtr(3)},
		Assertion{Type: AssertReplay, Count: intPtr(5)},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	// Assertions 0 and 2 hold.
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "assertion 1 (scheduled)")
	assert.Contains(t, result.Errors[0], "inactivity fires at 2026-03-04T09:00:00Z")
	assert.Contains(t, result.Errors[1], "assertion 3 (unscheduled)")
	assert.Contains(t, result.Errors[2], "assertion 4 (notifier_count)")
	assert.Contains(t, result.Errors[2], "called 2 times")
	assert.Contains(t, result.Errors[3], "assertion 5 (replay)")
	assert.Contains(t, result.Errors[3], "1 mutations")
}
