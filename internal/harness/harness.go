package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/roach88/myh2o/internal/beverage"
	"github.com/roach88/myh2o/internal/engine"
	"github.com/roach88/myh2o/internal/ledger"
	"github.com/roach88/myh2o/internal/recommend"
	"github.com/roach88/myh2o/internal/store"
	"github.com/roach88/myh2o/internal/testutil"
)

const (
	phaseSetup = "setup"
	phaseFlow  = "flow"
)

// Harness is the test execution engine.
// It runs scenarios with a fixed clock and sequential drink ids.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	clock    *testutil.FixedClock
	notifier *RecordingNotifier
	loc      *time.Location
	logger   *slog.Logger
}

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger for step progress. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Execute setup steps (any failure aborts the run)
// 3. Execute flow steps with expect validation
// 4. Capture the final state and evaluate assertions
//
// An error is returned only when the scenario could not be executed; failed
// expectations are reported through Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	start, err := scenario.StartTime()
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}
	loc, err := scenario.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	clock := testutil.NewFixedClock(start)
	notifier := NewRecordingNotifier(st.Outbox(engine.DefaultLedgerKey), loc)

	eng, err := engine.Open(ctx, st,
		engine.WithWallClock(clock),
		engine.WithIDGenerator(testutil.NewSequentialIDs("drink")),
		engine.WithLocation(loc),
		engine.WithRand(rand.New(rand.NewPCG(scenario.Seed, scenario.Seed))),
		engine.WithNotifier(notifier),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	h := &Harness{
		store:    st,
		engine:   eng,
		clock:    clock,
		notifier: notifier,
		loc:      loc,
		logger:   cfg.logger.With("scenario", scenario.Name),
	}

	result := NewResult()
	if err := h.executeSteps(ctx, phaseSetup, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeSteps(ctx, phaseFlow, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	state, err := captureState(ctx, eng)
	if err != nil {
		return nil, fmt.Errorf("failed to capture final state: %w", err)
	}
	result.State = state

	actx := &AssertionContext{
		Ctx:      ctx,
		Engine:   eng,
		Store:    st,
		Notifier: notifier,
		Location: loc,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"steps", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

// executeSteps runs steps in order, adding one trace event per step.
// Setup failures abort; flow failures are checked against expect clauses.
func (h *Harness) executeSteps(ctx context.Context, phase string, steps []Step, result *Result) error {
	for i, step := range steps {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("%s step %d: %w", phase, i, err)
			}
			h.clock.Advance(d)
		}

		mark := h.notifier.Len()
		err := h.executeAction(ctx, step)

		ev := TraceEvent{
			Phase:     phase,
			Step:      i,
			Action:    step.Action,
			At:        h.clock.Now().In(h.loc).Format(time.RFC3339),
			Outcome:   outcomeOf(err),
			Seq:       h.engine.Seq(),
			Hydration: h.engine.Recommendations(),
			Notifier:  h.notifier.Since(mark),
		}
		result.AddTrace(ev)

		h.logger.Info("step executed",
			"phase", phase,
			"step", i,
			"action", step.Action,
			"outcome", ev.Outcome,
			"seq", ev.Seq,
		)

		if phase == phaseSetup {
			if err != nil {
				return fmt.Errorf("setup step %d (%s): %w", i, step.Action, err)
			}
			continue
		}
		for _, msg := range checkExpect(step.Expect, ev, err) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Action, msg))
		}
	}
	return nil
}

func (h *Harness) executeAction(ctx context.Context, step Step) error {
	switch step.Action {
	case ActionAddDrink:
		t, err := beverage.ParseType(step.Beverage)
		if err != nil {
			return err
		}
		_, err = h.engine.AddDrink(ctx, t, step.Volume)
		return err
	case ActionUpdateProfile:
		return h.engine.UpdateProfile(ctx, *step.Profile)
	case ActionUpdateSettings:
		return h.engine.UpdateSettings(ctx, *step.Settings)
	case ActionClearHistory:
		return h.engine.ClearHistory(ctx)
	case ActionOnboard:
		return h.engine.CompleteOnboarding(ctx)
	case ActionWait:
		return nil
	}
	return fmt.Errorf("unknown action %q", step.Action)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case ledger.IsValidation(err):
		return OutcomeValidation
	case beverage.IsUnknownBeverage(err):
		return OutcomeUnknownBeverage
	}
	return OutcomeError
}

// checkExpect compares a flow step against its expect clause. A nil clause
// expects success.
func checkExpect(expect *ExpectClause, ev TraceEvent, err error) []string {
	want := OutcomeOK
	if expect != nil && expect.Outcome != "" {
		want = expect.Outcome
	}

	var msgs []string
	if ev.Outcome != want {
		msg := fmt.Sprintf("expected outcome %s, got %s", want, ev.Outcome)
		if err != nil {
			msg += ": " + err.Error()
		}
		msgs = append(msgs, msg)
	}
	if expect == nil {
		return msgs
	}

	if expect.Hydration != nil {
		msgs = append(msgs, compareHydration(*expect.Hydration, ev.Hydration)...)
	}

	if expect.Scheduled != nil {
		var got []string
		for _, c := range ev.Notifier {
			if c.Op != OpCancelAll {
				got = append(got, c.Kind)
			}
		}
		if !slices.Equal(got, expect.Scheduled) {
			msgs = append(msgs, fmt.Sprintf("expected scheduled %v, got %v", expect.Scheduled, got))
		}
	}
	return msgs
}

func compareHydration(want HydrationExpect, got recommend.Hydration) []string {
	var msgs []string
	floatField := func(name string, w *float64, g float64) {
		if w != nil && math.Abs(*w-g) > 1e-9 {
			msgs = append(msgs, fmt.Sprintf("%s: expected %v, got %v", name, *w, g))
		}
	}
	intField := func(name string, w *int, g int) {
		if w != nil && *w != g {
			msgs = append(msgs, fmt.Sprintf("%s: expected %d, got %d", name, *w, g))
		}
	}

	floatField("adjusted_daily_goal", want.AdjustedDailyGoal, got.AdjustedDailyGoal)
	intField("base_goal", want.BaseGoal, got.BaseGoal)
	intField("total_drank_today", want.TotalDrankToday, got.TotalDrankToday)
	floatField("extra_water_needed", want.ExtraWaterNeeded, got.ExtraWaterNeeded)
	intField("progress_percent", want.ProgressPercent, got.ProgressPercent)
	return msgs
}
