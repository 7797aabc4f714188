package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/myh2o/internal/ledger"
	"github.com/roach88/myh2o/internal/scheduler"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the initial wall clock time (RFC3339).
	Start string `yaml:"start"`

	// Timezone is the IANA zone used for calendar dates and reminder times.
	// Defaults to UTC.
	Timezone string `yaml:"timezone,omitempty"`

	// Seed seeds the message picker.
	Seed uint64 `yaml:"seed,omitempty"`

	// Setup steps establish initial state. They must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the main sequence of steps.
	Flow []Step `yaml:"flow"`

	// Assertions validate the trace and the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one user intent against the engine.
type Step struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Advance moves the clock forward (Go duration syntax) before the action.
	Advance string `yaml:"advance,omitempty"`

	// Beverage and Volume are used by add_drink.
	Beverage string `yaml:"beverage,omitempty"`
	Volume   int    `yaml:"volume,omitempty"`

	Profile  *ledger.ProfilePatch  `yaml:"profile,omitempty"`
	Settings *ledger.SettingsPatch `yaml:"settings,omitempty"`

	// Expect validates the step. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior.
type ExpectClause struct {
	// Outcome is one of the Outcome* constants. Defaults to "ok".
	Outcome string `yaml:"outcome,omitempty"`

	// Hydration is a subset match on today's figures after the step.
	Hydration *HydrationExpect `yaml:"hydration,omitempty"`

	// Scheduled lists the kinds the step scheduled, in order.
	Scheduled []string `yaml:"scheduled,omitempty"`
}

// HydrationExpect holds the recommendation fields a step may pin.
type HydrationExpect struct {
	AdjustedDailyGoal *float64 `yaml:"adjusted_daily_goal,omitempty"`
	BaseGoal          *int     `yaml:"base_goal,omitempty"`
	TotalDrankToday   *int     `yaml:"total_drank_today,omitempty"`
	ExtraWaterNeeded  *float64 `yaml:"extra_water_needed,omitempty"`
	ProgressPercent   *int     `yaml:"progress_percent,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind is the reminder kind (scheduled, unscheduled, notifier_count).
	Kind string `yaml:"kind,omitempty"`

	// FireAt is the expected fire time in RFC3339 (scheduled).
	FireAt string `yaml:"fire_at,omitempty"`

	// RepeatDaily is the expected repeat flag (scheduled).
	RepeatDaily *bool `yaml:"repeat_daily,omitempty"`

	// Op is the Notifier operation (notifier_count).
	Op string `yaml:"op,omitempty"`

	// Count is the expected number of calls (notifier_count) or mutations (replay).
	Count *int `yaml:"count,omitempty"`

	// Actions is the expected relative order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Expect is a subset match on the final state map (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Step actions.
const (
	ActionAddDrink       = "add_drink"
	ActionUpdateProfile  = "update_profile"
	ActionUpdateSettings = "update_settings"
	ActionClearHistory   = "clear_history"
	ActionOnboard        = "onboard"
	ActionWait           = "wait"
)

// Step outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeValidation      = "validation"
	OutcomeUnknownBeverage = "unknown_beverage"
	OutcomeError           = "error"
)

// Assertion type constants.
const (
	AssertScheduled     = "scheduled"
	AssertUnscheduled   = "unscheduled"
	AssertNotifierCount = "notifier_count"
	AssertTraceOrder    = "trace_order"
	AssertFinalState    = "final_state"
	AssertReplay        = "replay"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// StartTime parses Start.
func (s *Scenario) StartTime() (time.Time, error) {
	return time.Parse(time.RFC3339, s.Start)
}

// Location resolves Timezone, defaulting to UTC.
func (s *Scenario) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Start == "" {
		return fmt.Errorf("start is required")
	}
	if _, err := s.StartTime(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if _, err := s.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Setup {
		if err := validateStep(&s.Setup[i]); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if s.Setup[i].Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i := range s.Flow {
		if err := validateStep(&s.Flow[i]); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(st *Step) error {
	if st.Advance != "" {
		d, err := time.ParseDuration(st.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("advance must be non-negative, got %s", st.Advance)
		}
	}

	switch st.Action {
	case "":
		return fmt.Errorf("action is required")
	case ActionAddDrink:
		if st.Beverage == "" {
			return fmt.Errorf("beverage is required for add_drink")
		}
	case ActionUpdateProfile:
		if st.Profile == nil {
			return fmt.Errorf("profile is required for update_profile")
		}
	case ActionUpdateSettings:
		if st.Settings == nil {
			return fmt.Errorf("settings is required for update_settings")
		}
	case ActionWait:
		if st.Advance == "" {
			return fmt.Errorf("advance is required for wait")
		}
	case ActionClearHistory, ActionOnboard:
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}

	if st.Expect != nil {
		switch st.Expect.Outcome {
		case "", OutcomeOK, OutcomeValidation, OutcomeUnknownBeverage, OutcomeError:
		default:
			return fmt.Errorf("expect: unknown outcome %q", st.Expect.Outcome)
		}
		for _, k := range st.Expect.Scheduled {
			if !validKind(k) {
				return fmt.Errorf("expect: unknown reminder kind %q", k)
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertScheduled:
		if !validKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: valid kind is required for scheduled, got %q", index, a.Kind)
		}
		if a.FireAt != "" {
			if _, err := time.Parse(time.RFC3339, a.FireAt); err != nil {
				return fmt.Errorf("assertions[%d]: fire_at: %w", index, err)
			}
		}
	case AssertUnscheduled:
		if a.Kind != "" && !validKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown kind %q", index, a.Kind)
		}
	case AssertNotifierCount:
		switch a.Op {
		case OpScheduleDaily, OpScheduleOnce, OpCancelAll:
		default:
			return fmt.Errorf("assertions[%d]: op must be one of %s, %s, %s for notifier_count",
				index, OpScheduleDaily, OpScheduleOnce, OpCancelAll)
		}
		if a.Kind != "" && !validKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown kind %q", index, a.Kind)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for notifier_count", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		for key := range a.Expect {
			if _, ok := stateKeys[key]; !ok {
				return fmt.Errorf("assertions[%d]: unknown final_state key %q", index, key)
			}
		}
	case AssertReplay:
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for replay", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validKind(k string) bool {
	for _, kind := range scheduler.Kinds() {
		if string(kind) == k {
			return true
		}
	}
	return false
}
