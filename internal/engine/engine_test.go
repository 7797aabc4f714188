package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/myh2o/internal/beverage"
	"github.com/roach88/myh2o/internal/ledger"
	"github.com/roach88/myh2o/internal/scheduler"
	"github.com/roach88/myh2o/internal/store"
	"github.com/roach88/myh2o/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

var testNow = time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func openTestEngine(t *testing.T, s *store.Store, clock *testutil.FixedClock, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithWallClock(clock),
		WithIDGenerator(testutil.NewSequentialIDs("d")),
		WithLocation(time.UTC),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}
	e, err := Open(context.Background(), s, append(base, opts...)...)
	require.NoError(t, err)
	return e
}

// recordingHook captures the events it sees and the ledger state at that time.
type recordingHook struct {
	engine *Engine
	kinds  []ledger.EventKind
	totals []int
	err    error
}

func (h *recordingHook) Handle(_ context.Context, ev ledger.Event) error {
	h.kinds = append(h.kinds, ev.Kind())
	h.totals = append(h.totals, len(h.engine.ledger.DrinkHistory()))
	return h.err
}

func TestOpen_FirstLaunch(t *testing.T) {
	s, _ := setupTestStore(t)
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow))

	assert.Equal(t, DefaultLedgerKey, e.Key())
	assert.Equal(t, int64(0), e.Seq())
	assert.Equal(t, 2300, e.Document().Settings.DailyGoal)
	assert.Empty(t, e.Pending())
}

func TestAddDrink_CommitsAndSchedules(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow))

	entry, err := e.AddDrink(ctx, beverage.Beer, 500)
	require.NoError(t, err)
	assert.Equal(t, "d-0001", entry.ID)
	assert.Equal(t, 500.0, entry.ExtraWaterNeeded)
	assert.Equal(t, int64(1), e.Seq())

	snap, err := s.LoadLedger(ctx, DefaultLedgerKey)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Seq)

	mutations, err := e.Mutations(ctx)
	require.NoError(t, err)
	require.Len(t, mutations, 1)
	assert.Equal(t, ledger.KindDrinkAdded, mutations[0].Kind)
	assert.Equal(t, testNow, mutations[0].RecordedAt)

	pending := e.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, scheduler.KindAfterAlcohol, pending[0].Kind)
	assert.Equal(t, scheduler.KindInactivity, pending[1].Kind)

	outbox, err := s.Outbox(DefaultLedgerKey).Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, outbox, 2)
}

func TestAddDrink_ValidationRejectsWithoutCommit(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow))

	_, err := e.AddDrink(ctx, beverage.Water, 0)
	require.Error(t, err)
	assert.True(t, ledger.IsValidation(err))

	_, err = e.AddDrink(ctx, beverage.Type("Kombucha"), 200)
	require.Error(t, err)
	assert.True(t, beverage.IsUnknownBeverage(err))

	assert.Equal(t, int64(0), e.Seq())
	mutations, err := e.Mutations(ctx)
	require.NoError(t, err)
	assert.Empty(t, mutations)
	assert.Empty(t, e.Pending())
}

func TestScenarioAB_Recommendations(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow))

	_, err := e.AddDrink(ctx, beverage.Water, 500)
	require.NoError(t, err)
	h := e.Recommendations()
	assert.Equal(t, 500, h.TotalDrankToday)
	assert.Equal(t, 2300.0, h.AdjustedDailyGoal)
	assert.Equal(t, 22, h.ProgressPercent)

	_, err = e.AddDrink(ctx, beverage.Coffee, 100)
	require.NoError(t, err)
	h = e.Recommendations()
	assert.Equal(t, 600, h.TotalDrankToday)
	assert.Equal(t, 400.0, h.ExtraWaterNeeded)
	assert.Equal(t, 2700.0, h.AdjustedDailyGoal)
	assert.Equal(t, 22, h.ProgressPercent)
}

func TestScenarioC_WeightRecomputesGoal(t *testing.T) {
	s, _ := setupTestStore(t)
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow))

	err := e.UpdateProfile(context.Background(), ledger.ProfilePatch{
		Weight:     ptr("70"),
		WeightUnit: ptr(ledger.Kilograms),
	})
	require.NoError(t, err)
	assert.Equal(t, 2450, e.Document().Settings.DailyGoal)
}

func TestScenarioD_NotificationsOffCancelsAll(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow))

	require.NoError(t, e.UpdateProfile(ctx, ledger.ProfilePatch{WorkdayWakeTime: ptr("7:00 AM")}))
	require.Len(t, e.Pending(), 1)

	require.NoError(t, e.UpdateSettings(ctx, ledger.SettingsPatch{Notifications: ptr(false)}))
	assert.Empty(t, e.Pending())

	outbox, err := s.Outbox(DefaultLedgerKey).Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, outbox)
}

func TestScenarioE_WakeupRollsToTomorrow(t *testing.T) {
	s, _ := setupTestStore(t)
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow))

	require.NoError(t, e.UpdateProfile(context.Background(), ledger.ProfilePatch{WorkdayWakeTime: ptr("7:00 AM")}))
	pending := e.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, time.Date(2026, 3, 5, 7, 0, 0, 0, time.UTC), pending[0].FireAt)
	assert.True(t, pending[0].RepeatDaily)
}

func TestHooks_SeePostMutationStateInOrder(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	hook := &recordingHook{}
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow), WithHook(hook))
	hook.engine = e

	_, err := e.AddDrink(ctx, beverage.Water, 250)
	require.NoError(t, err)
	require.NoError(t, e.CompleteOnboarding(ctx))
	require.NoError(t, e.ClearHistory(ctx))

	assert.Equal(t, []ledger.EventKind{
		ledger.KindDrinkAdded, ledger.KindOnboarded, ledger.KindHistoryCleared,
	}, hook.kinds)
	assert.Equal(t, []int{1, 1, 0}, hook.totals)
}

func TestHooks_FailureDoesNotUndoMutation(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	hook := &recordingHook{err: errors.New("boom")}
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow), WithHook(hook))
	hook.engine = e

	_, err := e.AddDrink(ctx, beverage.Water, 250)
	require.NoError(t, err)
	assert.Len(t, e.Document().DrinkHistory, 1)
	assert.Equal(t, int64(1), e.Seq())
}

func TestCommitFailure_ReloadsLastCommittedState(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow))

	_, err := e.AddDrink(ctx, beverage.Water, 250)
	require.NoError(t, err)

	// Occupy the next seq so the commit collides
	_, err = s.DB().Exec(`INSERT INTO mutations (ledger_key, seq, kind, payload, recorded_at) VALUES (?, 2, 'onboarded', '{}', '2026-03-04T08:00:00.000000000Z')`, DefaultLedgerKey)
	require.NoError(t, err)

	_, err = e.AddDrink(ctx, beverage.Water, 300)
	require.Error(t, err)
	assert.True(t, IsCommitError(err))

	// In-memory ledger rolled back to the committed snapshot
	assert.Len(t, e.Document().DrinkHistory, 1)
	// Clock resumes after the highest logged seq
	assert.Equal(t, int64(2), e.Seq())
}

func TestOpen_ResumesFromStore(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	clock := testutil.NewFixedClock(testNow)

	e1 := openTestEngine(t, s, clock)
	_, err := e1.AddDrink(ctx, beverage.Wine, 150)
	require.NoError(t, err)
	require.NoError(t, e1.UpdateSettings(ctx, ledger.SettingsPatch{DailyGoal: ptr(2600)}))

	e2 := openTestEngine(t, s, clock)
	assert.Equal(t, int64(2), e2.Seq())
	assert.Equal(t, 2600, e2.Document().Settings.DailyGoal)
	assert.Len(t, e2.Document().DrinkHistory, 1)

	// Pending reminders restored from the outbox
	pending := e2.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, scheduler.KindAfterAlcohol, pending[0].Kind)
	assert.True(t, pending[0].FireAt.Equal(testNow.Add(30*time.Minute)))
}

func TestOpen_DropsFiredOneShotReminders(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	clock := testutil.NewFixedClock(testNow)

	e1 := openTestEngine(t, s, clock)
	_, err := e1.AddDrink(ctx, beverage.Beer, 330)
	require.NoError(t, err)
	require.Len(t, e1.Pending(), 2)

	clock.Advance(time.Hour)
	e2 := openTestEngine(t, s, clock)
	pending := e2.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, scheduler.KindInactivity, pending[0].Kind)

	clock.Advance(3 * time.Hour)
	e3 := openTestEngine(t, s, clock)
	assert.Empty(t, e3.Pending())
}

func TestOpen_AfterTimezoneChange(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	// 23:30 UTC on the 4th is the 5th in Tokyo.
	clock := testutil.NewFixedClock(time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC))

	e1 := openTestEngine(t, s, clock)
	_, err := e1.AddDrink(ctx, beverage.Water, 250)
	require.NoError(t, err)
	_, ok := e1.Document().DailyStats["2026-03-04"]
	require.True(t, ok)

	tokyo := time.FixedZone("JST", 9*60*60)
	e2, err := Open(ctx, s,
		WithWallClock(clock),
		WithIDGenerator(testutil.NewSequentialIDs("t")),
		WithLocation(tokyo),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	require.NoError(t, err)

	doc := e2.Document()
	require.Len(t, doc.DrinkHistory, 1)
	assert.NotContains(t, doc.DailyStats, "2026-03-04")
	require.Contains(t, doc.DailyStats, "2026-03-05")
	assert.Equal(t, 250, doc.DailyStats["2026-03-05"].TotalVolume)
	assert.Equal(t, 250, e2.Recommendations().TotalDrankToday)

	data, err := e2.Export()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	result, err := e2.Replay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Mutations)

	_, err = e2.AddDrink(ctx, beverage.Tea, 200)
	require.NoError(t, err)
	assert.Equal(t, 450, e2.Document().DailyStats["2026-03-05"].TotalVolume)

	_, err = e2.Replay(ctx)
	require.NoError(t, err)
}

func TestLedgerKeysAreIsolated(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	clock := testutil.NewFixedClock(testNow)

	a := openTestEngine(t, s, clock, WithLedgerKey("a"))
	b := openTestEngine(t, s, clock, WithLedgerKey("b"))

	_, err := a.AddDrink(ctx, beverage.Water, 250)
	require.NoError(t, err)

	assert.Len(t, a.Document().DrinkHistory, 1)
	assert.Empty(t, b.Document().DrinkHistory)
	assert.Empty(t, b.Pending())
}

func TestWeekAndSuggestion(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	clock := testutil.NewFixedClock(testNow)
	e := openTestEngine(t, s, clock)

	_, err := e.AddDrink(ctx, beverage.Water, 2300)
	require.NoError(t, err)

	week := e.Week()
	require.Len(t, week.Days, 7)
	assert.Equal(t, "2026-03-04", week.Days[6].Date)
	assert.Equal(t, 2.3, week.Days[6].Liters)
	assert.Equal(t, 2.5, week.MaxScale)

	assert.NotEmpty(t, e.Suggestion())
}

func TestExportImport(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	clock := testutil.NewFixedClock(testNow)

	src := openTestEngine(t, s, clock, WithLedgerKey("src"))
	_, err := src.AddDrink(ctx, beverage.Tea, 200)
	require.NoError(t, err)
	require.NoError(t, src.UpdateProfile(ctx, ledger.ProfilePatch{Name: ptr("Ana")}))
	data, err := src.Export()
	require.NoError(t, err)

	dst := openTestEngine(t, s, clock, WithLedgerKey("dst"))
	_, err = dst.AddDrink(ctx, beverage.Water, 999)
	require.NoError(t, err)

	require.NoError(t, dst.Import(ctx, data))
	assert.Equal(t, src.Document(), dst.Document())
	assert.Equal(t, int64(0), dst.Seq())

	mutations, err := dst.Mutations(ctx)
	require.NoError(t, err)
	assert.Empty(t, mutations)

	// Sleep-schedule reminders are re-armed from the imported profile
	kinds := []scheduler.Kind{}
	for _, n := range dst.Pending() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []scheduler.Kind{
		scheduler.KindWorkdayWake, scheduler.KindWeekendWake,
		scheduler.KindWorkdayBed, scheduler.KindWeekendBed,
	}, kinds)

	// Further mutations continue from seq 1 and replay from the imported base
	_, err = dst.AddDrink(ctx, beverage.Water, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dst.Seq())
	_, err = dst.Replay(ctx)
	require.NoError(t, err)
}

func TestImport_RejectsMalformed(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	e := openTestEngine(t, s, testutil.NewFixedClock(testNow))
	_, err := e.AddDrink(ctx, beverage.Water, 250)
	require.NoError(t, err)

	require.Error(t, e.Import(ctx, []byte(`{"drinkHistory": 7}`)))
	assert.Len(t, e.Document().DrinkHistory, 1)
	assert.Equal(t, int64(1), e.Seq())
}
