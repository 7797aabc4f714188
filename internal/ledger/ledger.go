package ledger

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/myh2o/internal/beverage"
)

// Goal derivation constants.
const (
	// MillilitersPerKilogram is the daily intake recommended per kg of body weight.
	MillilitersPerKilogram = 35

	// PoundsPerKilogram converts lbs input to kg.
	PoundsPerKilogram = 2.20462
)

// Ledger is the hydration aggregate root.
type Ledger struct {
	mu    sync.RWMutex
	doc   Document
	clock Clock
	ids   IDGenerator
	loc   *time.Location
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used to timestamp drinks.
func WithClock(c Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithIDGenerator sets the generator used for drink ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Ledger) {
		l.ids = g
	}
}

// WithLocation sets the timezone calendar dates are computed in.
// Default: time.Local.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// New creates a first-launch ledger: default settings and an empty history.
func New(opts ...Option) *Ledger {
	return newLedger(DefaultDocument(), opts...)
}

func newLedger(doc Document, opts ...Option) *Ledger {
	l := &Ledger{
		doc:   doc,
		clock: SystemClock{},
		ids:   UUIDv7Generator{},
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddDrink logs a drink of the given type and volume (mL) at the current time.
//
// The entry's extraWaterNeeded is derived once here: ExtraWaterFor(t, volume),
// or 0 for Water. Returns a ValidationError for non-positive volume and an
// UnknownBeverageError for a type outside the closed set.
func (l *Ledger) AddDrink(t beverage.Type, volume int) (DrinkAdded, error) {
	if volume <= 0 {
		return DrinkAdded{}, &ValidationError{Field: "volume", Message: fmt.Sprintf("must be positive, got %d", volume)}
	}

	extra, err := beverage.ExtraWaterFor(t, volume)
	if err != nil {
		return DrinkAdded{}, fmt.Errorf("add drink: %w", err)
	}
	if t == beverage.Water {
		extra = 0
	}

	ev := DrinkAdded{Entry: DrinkEntry{
		ID:               l.ids.Generate(),
		Type:             t,
		Volume:           volume,
		Timestamp:        l.clock.Now().UTC(),
		ExtraWaterNeeded: extra,
	}}

	if err := l.Apply(ev); err != nil {
		return DrinkAdded{}, err
	}
	return ev, nil
}

// UpdateProfile shallow-merges patch into the profile.
//
// When patch.Weight parses as a finite positive number, settings.dailyGoal is
// recomputed as round(weightInKg * 35), using patch.WeightUnit if present and
// the stored unit otherwise. An unparsable weight leaves the goal unchanged.
func (l *Ledger) UpdateProfile(patch ProfilePatch) (ProfileUpdated, error) {
	ev := ProfileUpdated{Patch: patch}
	if err := l.Apply(ev); err != nil {
		return ProfileUpdated{}, err
	}
	return ev, nil
}

// UpdateSettings shallow-merges patch into the settings.
func (l *Ledger) UpdateSettings(patch SettingsPatch) (SettingsUpdated, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := SettingsUpdated{Patch: patch, Previous: l.doc.Settings}
	if err := l.applyLocked(ev); err != nil {
		return SettingsUpdated{}, err
	}
	return ev, nil
}

// ClearHistory empties drinkHistory and dailyStats. Profile, settings and the
// onboarding flag are preserved.
func (l *Ledger) ClearHistory() (HistoryCleared, error) {
	ev := HistoryCleared{}
	return ev, l.Apply(ev)
}

// CompleteOnboarding sets the onboarding flag. Idempotent.
func (l *Ledger) CompleteOnboarding() (Onboarded, error) {
	ev := Onboarded{}
	return ev, l.Apply(ev)
}

// Apply applies a recorded event. Mutation methods route through here, and
// replaying a mutation log in order rebuilds an identical ledger.
func (l *Ledger) Apply(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(ev)
}

// applyLocked validates ev completely before mutating anything.
// Caller must hold l.mu for writing.
func (l *Ledger) applyLocked(ev Event) error {
	switch e := ev.(type) {
	case DrinkAdded:
		return l.applyDrink(e.Entry)
	case ProfileUpdated:
		return l.applyProfile(e.Patch)
	case SettingsUpdated:
		return l.applySettings(e.Patch)
	case HistoryCleared:
		l.doc.DrinkHistory = []DrinkEntry{}
		l.doc.DailyStats = map[string]DailyStat{}
		return nil
	case Onboarded:
		l.doc.OnBoarding = true
		return nil
	case nil:
		return fmt.Errorf("apply: nil event")
	default:
		return fmt.Errorf("apply: unsupported event %T", ev)
	}
}

func (l *Ledger) applyDrink(entry DrinkEntry) error {
	if entry.Volume <= 0 {
		return &ValidationError{Field: "volume", Message: fmt.Sprintf("must be positive, got %d", entry.Volume)}
	}
	if !entry.Type.Valid() {
		return &beverage.UnknownBeverageError{Type: entry.Type}
	}
	if entry.ID == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}

	l.doc.DrinkHistory = append(l.doc.DrinkHistory, entry)
	ts := entry.Timestamp
	l.doc.LastDrinkTime = &ts

	date := DateKey(entry.Timestamp, l.loc)
	stat, ok := l.doc.DailyStats[date]
	if !ok {
		stat = DailyStat{Date: date, Drinks: []DrinkEntry{}}
	}
	stat.Drinks = append(stat.Drinks, entry)
	stat.TotalVolume += entry.Volume
	l.doc.DailyStats[date] = stat

	return nil
}

func (l *Ledger) applyProfile(p ProfilePatch) error {
	if p.Gender != nil && !p.Gender.Valid() {
		return &ValidationError{Field: "gender", Message: fmt.Sprintf("unknown gender %q", *p.Gender)}
	}
	if p.WeightUnit != nil && !p.WeightUnit.Valid() {
		return &ValidationError{Field: "weightUnit", Message: fmt.Sprintf("unknown unit %q", *p.WeightUnit)}
	}

	prof := &l.doc.Profile
	if p.Name != nil {
		prof.Name = norm.NFC.String(strings.TrimSpace(*p.Name))
	}
	if p.Avatar != nil {
		prof.Avatar = *p.Avatar
	}
	if p.Gender != nil {
		prof.Gender = *p.Gender
	}
	if p.WeightUnit != nil {
		prof.WeightUnit = *p.WeightUnit
	}
	if p.Age != nil {
		prof.Age = *p.Age
	}
	if p.Weight != nil {
		prof.Weight = *p.Weight
	}
	if p.WorkdayWakeTime != nil {
		prof.WorkdayWakeTime = *p.WorkdayWakeTime
	}
	if p.WorkdayBedTime != nil {
		prof.WorkdayBedTime = *p.WorkdayBedTime
	}
	if p.WeekendWakeTime != nil {
		prof.WeekendWakeTime = *p.WeekendWakeTime
	}
	if p.WeekendBedTime != nil {
		prof.WeekendBedTime = *p.WeekendBedTime
	}

	if p.Weight != nil {
		unit := prof.WeightUnit
		if p.WeightUnit != nil {
			unit = *p.WeightUnit
		}
		if goal, ok := GoalForWeight(*p.Weight, unit); ok {
			l.doc.Settings.DailyGoal = goal
		} else {
			slog.Debug("daily goal not recomputed", "weight", *p.Weight, "unit", unit)
		}
	}

	return nil
}

func (l *Ledger) applySettings(p SettingsPatch) error {
	if p.DailyGoal != nil && *p.DailyGoal <= 0 {
		return &ValidationError{Field: "dailyGoal", Message: fmt.Sprintf("must be positive, got %d", *p.DailyGoal)}
	}
	if p.ReminderIntervalMinutes != nil && *p.ReminderIntervalMinutes <= 0 {
		return &ValidationError{Field: "reminderInterval", Message: fmt.Sprintf("must be positive, got %d", *p.ReminderIntervalMinutes)}
	}

	if p.DailyGoal != nil {
		l.doc.Settings.DailyGoal = *p.DailyGoal
	}
	if p.Notifications != nil {
		l.doc.Settings.Notifications = *p.Notifications
	}
	if p.ReminderIntervalMinutes != nil {
		l.doc.Settings.ReminderIntervalMinutes = *p.ReminderIntervalMinutes
	}
	return nil
}

// GoalForWeight returns round(weightInKg * 35) for a numeric weight string.
// ok is false when weight is not a finite positive number or the goal would
// round to zero.
func GoalForWeight(weight string, unit WeightUnit) (goal int, ok bool) {
	w, err := strconv.ParseFloat(strings.TrimSpace(weight), 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return 0, false
	}

	kg := w
	if unit == Pounds {
		kg = w / PoundsPerKilogram
	}

	goal = int(math.Round(kg * MillilitersPerKilogram))
	if goal <= 0 {
		return 0, false
	}
	return goal, true
}

// Settings returns a copy of the current settings.
func (l *Ledger) Settings() UserSettings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.doc.Settings
}

// Profile returns a copy of the current profile.
func (l *Ledger) Profile() UserProfile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.doc.Profile
}

// OnBoarding reports whether onboarding has been completed.
func (l *Ledger) OnBoarding() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.doc.OnBoarding
}

// LastDrinkTime returns the timestamp of the most recent drink, if any.
func (l *Ledger) LastDrinkTime() (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.doc.LastDrinkTime == nil {
		return time.Time{}, false
	}
	return *l.doc.LastDrinkTime, true
}

// DrinkHistory returns a copy of every drink in logging order.
func (l *Ledger) DrinkHistory() []DrinkEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]DrinkEntry{}, l.doc.DrinkHistory...)
}

// DailyStat returns the aggregate for a YYYY-MM-DD date.
func (l *Ledger) DailyStat(date string) (DailyStat, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stat, ok := l.doc.DailyStats[date]
	if !ok {
		return DailyStat{}, false
	}
	stat.Drinks = append([]DrinkEntry{}, stat.Drinks...)
	return stat, true
}

// Location returns the timezone calendar dates are computed in.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Document returns a deep copy of the ledger state.
func (l *Ledger) Document() Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyDocument(l.doc)
}

// Verify checks that dailyStats is consistent with drinkHistory.
func (l *Ledger) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return verifyIndex(l.doc, l.loc)
}

func verifyIndex(doc Document, loc *time.Location) error {
	actual := make(map[string]int)
	counts := make(map[string]int)
	for _, e := range doc.DrinkHistory {
		d := DateKey(e.Timestamp, loc)
		actual[d] += e.Volume
		counts[d]++
	}

	dates := make([]string, 0, len(doc.DailyStats))
	for d := range doc.DailyStats {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, d := range dates {
		stat := doc.DailyStats[d]
		if stat.TotalVolume != actual[d] || len(stat.Drinks) != counts[d] {
			return &InvariantError{Date: d, Indexed: stat.TotalVolume, Actual: actual[d]}
		}
		delete(actual, d)
	}
	if len(actual) > 0 {
		missing := make([]string, 0, len(actual))
		for d := range actual {
			missing = append(missing, d)
		}
		sort.Strings(missing)
		return &InvariantError{Date: missing[0], Indexed: 0, Actual: actual[missing[0]]}
	}
	return nil
}

// reindex rebuilds dailyStats from drinkHistory.
func reindex(doc *Document, loc *time.Location) {
	doc.DailyStats = make(map[string]DailyStat)
	for _, e := range doc.DrinkHistory {
		d := DateKey(e.Timestamp, loc)
		stat, ok := doc.DailyStats[d]
		if !ok {
			stat = DailyStat{Date: d, Drinks: []DrinkEntry{}}
		}
		stat.Drinks = append(stat.Drinks, e)
		stat.TotalVolume += e.Volume
		doc.DailyStats[d] = stat
	}
}

func copyDocument(doc Document) Document {
	out := doc
	out.DrinkHistory = append([]DrinkEntry{}, doc.DrinkHistory...)
	out.DailyStats = make(map[string]DailyStat, len(doc.DailyStats))
	for d, stat := range doc.DailyStats {
		stat.Drinks = append([]DrinkEntry{}, stat.Drinks...)
		out.DailyStats[d] = stat
	}
	if doc.LastDrinkTime != nil {
		ts := *doc.LastDrinkTime
		out.LastDrinkTime = &ts
	}
	return out
}
