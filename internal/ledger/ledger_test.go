package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/myh2o/internal/beverage"
	"github.com/roach88/myh2o/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func newTestLedger(t *testing.T, now time.Time) (*Ledger, *testutil.FixedClock) {
	t.Helper()
	clock := testutil.NewFixedClock(now)
	l := New(
		WithClock(clock),
		WithIDGenerator(testutil.NewSequentialIDs("d")),
		WithLocation(time.UTC),
	)
	return l, clock
}

func TestNew_Defaults(t *testing.T) {
	l := New()
	doc := l.Document()

	assert.False(t, doc.OnBoarding)
	assert.Equal(t, 2300, doc.Settings.DailyGoal)
	assert.True(t, doc.Settings.Notifications)
	assert.Equal(t, 60, doc.Settings.ReminderIntervalMinutes)
	assert.Empty(t, doc.DrinkHistory)
	assert.Empty(t, doc.DailyStats)
	assert.Nil(t, doc.LastDrinkTime)
	assert.Equal(t, GenderMen, doc.Profile.Gender)
	assert.Equal(t, Kilograms, doc.Profile.WeightUnit)
	assert.Equal(t, "7:00 AM", doc.Profile.WorkdayWakeTime)
	assert.Equal(t, "12:00 AM", doc.Profile.WeekendBedTime)
}

func TestAddDrink_CreatesEntry(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	l, _ := newTestLedger(t, now)

	ev, err := l.AddDrink(beverage.Coffee, 100)
	require.NoError(t, err)

	assert.Equal(t, "d-0001", ev.Entry.ID)
	assert.Equal(t, beverage.Coffee, ev.Entry.Type)
	assert.Equal(t, 100, ev.Entry.Volume)
	assert.Equal(t, now, ev.Entry.Timestamp)
	assert.InDelta(t, 400.0, ev.Entry.ExtraWaterNeeded, 1e-9)

	last, ok := l.LastDrinkTime()
	require.True(t, ok)
	assert.Equal(t, now, last)

	stat, ok := l.DailyStat("2026-03-02")
	require.True(t, ok)
	assert.Equal(t, 100, stat.TotalVolume)
	require.Len(t, stat.Drinks, 1)
	assert.Equal(t, ev.Entry, stat.Drinks[0])
}

func TestAddDrink_WaterHasNoDebt(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	ev, err := l.AddDrink(beverage.Water, 500)
	require.NoError(t, err)
	assert.Zero(t, ev.Entry.ExtraWaterNeeded)
}

func TestAddDrink_SameArgsDistinctEntries(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	first, err := l.AddDrink(beverage.Tea, 250)
	require.NoError(t, err)
	second, err := l.AddDrink(beverage.Tea, 250)
	require.NoError(t, err)

	assert.NotEqual(t, first.Entry.ID, second.Entry.ID)
	assert.Equal(t, first.Entry.ExtraWaterNeeded, second.Entry.ExtraWaterNeeded)
	assert.Len(t, l.DrinkHistory(), 2)
}

func TestAddDrink_UUIDv7IDsAreUnique(t *testing.T) {
	l := New(WithLocation(time.UTC))

	a, err := l.AddDrink(beverage.Water, 200)
	require.NoError(t, err)
	b, err := l.AddDrink(beverage.Water, 200)
	require.NoError(t, err)

	assert.Len(t, a.Entry.ID, 36)
	assert.NotEqual(t, a.Entry.ID, b.Entry.ID)
}

func TestAddDrink_Rejects(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	_, err := l.AddDrink(beverage.Water, 0)
	assert.True(t, IsValidation(err))

	_, err = l.AddDrink(beverage.Water, -50)
	assert.True(t, IsValidation(err))

	_, err = l.AddDrink(beverage.Type("Kvass"), 200)
	assert.True(t, beverage.IsUnknownBeverage(err))

	assert.Empty(t, l.DrinkHistory(), "rejected drinks must not be recorded")
	_, ok := l.LastDrinkTime()
	assert.False(t, ok)
}

func TestAddDrink_DailyStatsPerLocalDate(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	clock := testutil.NewFixedClock(time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)) // 23:00 local
	l := New(WithClock(clock), WithIDGenerator(testutil.NewSequentialIDs("d")), WithLocation(loc))

	_, err := l.AddDrink(beverage.Water, 300)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour) // 01:00 local, next day
	_, err = l.AddDrink(beverage.Juice, 200)
	require.NoError(t, err)

	first, ok := l.DailyStat("2026-03-02")
	require.True(t, ok)
	assert.Equal(t, 300, first.TotalVolume)

	second, ok := l.DailyStat("2026-03-03")
	require.True(t, ok)
	assert.Equal(t, 200, second.TotalVolume)
	require.NoError(t, l.Verify())
}

func TestAddDrink_IndexInvariant(t *testing.T) {
	l, clock := newTestLedger(t, time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC))

	drinks := []struct {
		typ    beverage.Type
		volume int
		gap    time.Duration
	}{
		{beverage.Water, 250, 0},
		{beverage.Coffee, 150, 3 * time.Hour},
		{beverage.Beer, 330, 14 * time.Hour},
		{beverage.Water, 500, 2 * time.Hour},
		{beverage.Milk, 200, 30 * time.Hour},
		{beverage.Wine, 150, time.Hour},
	}
	for _, d := range drinks {
		clock.Advance(d.gap)
		_, err := l.AddDrink(d.typ, d.volume)
		require.NoError(t, err)
	}

	require.NoError(t, l.Verify())

	doc := l.Document()
	sums := map[string]int{}
	for _, e := range doc.DrinkHistory {
		sums[DateKey(e.Timestamp, time.UTC)] += e.Volume
	}
	for date, stat := range doc.DailyStats {
		assert.Equal(t, sums[date], stat.TotalVolume, date)
	}
	assert.Len(t, doc.DailyStats, len(sums))
}

func TestUpdateProfile_RecomputesGoal(t *testing.T) {
	tests := []struct {
		name  string
		patch ProfilePatch
		want  int
	}{
		{"kg", ProfilePatch{Weight: ptr("70"), WeightUnit: ptr(Kilograms)}, 2450},
		{"lbs", ProfilePatch{Weight: ptr("154"), WeightUnit: ptr(Pounds)}, 2445},
		{"stored unit", ProfilePatch{Weight: ptr("80")}, 2800},
		{"decimal", ProfilePatch{Weight: ptr("62.5")}, 2188},
		{"not numeric", ProfilePatch{Weight: ptr("heavy")}, 2300},
		{"zero", ProfilePatch{Weight: ptr("0")}, 2300},
		{"negative", ProfilePatch{Weight: ptr("-70")}, 2300},
		{"empty", ProfilePatch{Weight: ptr("")}, 2300},
		{"infinite", ProfilePatch{Weight: ptr("Inf")}, 2300},
		{"no weight", ProfilePatch{Age: ptr("31")}, 2300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			_, err := l.UpdateProfile(tt.patch)
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.Settings().DailyGoal)
		})
	}
}

func TestUpdateProfile_UnitChangeUsesStoredUnit(t *testing.T) {
	l := New()
	_, err := l.UpdateProfile(ProfilePatch{WeightUnit: ptr(Pounds)})
	require.NoError(t, err)
	assert.Equal(t, 2300, l.Settings().DailyGoal, "unit alone does not recompute")

	_, err = l.UpdateProfile(ProfilePatch{Weight: ptr("220.462")})
	require.NoError(t, err)
	assert.Equal(t, 3500, l.Settings().DailyGoal)
}

func TestUpdateProfile_ShallowMerge(t *testing.T) {
	l := New()
	_, err := l.UpdateProfile(ProfilePatch{
		Name:            ptr("  Zoë  "),
		Gender:          ptr(GenderWomen),
		WorkdayWakeTime: ptr("6:15 AM"),
	})
	require.NoError(t, err)

	p := l.Profile()
	assert.Equal(t, "Zoë", p.Name)
	assert.Equal(t, GenderWomen, p.Gender)
	assert.Equal(t, "6:15 AM", p.WorkdayWakeTime)
	assert.Equal(t, "11:00 PM", p.WorkdayBedTime, "untouched fields keep their value")
}

func TestUpdateProfile_NormalizesName(t *testing.T) {
	l := New()
	decomposed := "Zoe\u0308"
	_, err := l.UpdateProfile(ProfilePatch{Name: &decomposed})
	require.NoError(t, err)
	assert.Equal(t, "Zo\u00eb", l.Profile().Name)
}

func TestUpdateProfile_RejectsUnknownEnums(t *testing.T) {
	l := New()

	_, err := l.UpdateProfile(ProfilePatch{Gender: ptr(Gender("robot")), Weight: ptr("90")})
	assert.True(t, IsValidation(err))

	_, err = l.UpdateProfile(ProfilePatch{WeightUnit: ptr(WeightUnit("stone"))})
	assert.True(t, IsValidation(err))

	assert.Equal(t, DefaultProfile(), l.Profile())
	assert.Equal(t, 2300, l.Settings().DailyGoal)
}

func TestUpdateSettings(t *testing.T) {
	l := New()

	ev, err := l.UpdateSettings(SettingsPatch{Notifications: ptr(false)})
	require.NoError(t, err)
	assert.True(t, ev.Previous.Notifications)
	assert.False(t, l.Settings().Notifications)
	assert.Equal(t, 2300, l.Settings().DailyGoal)

	_, err = l.UpdateSettings(SettingsPatch{DailyGoal: ptr(3000), ReminderIntervalMinutes: ptr(45)})
	require.NoError(t, err)
	assert.Equal(t, UserSettings{DailyGoal: 3000, Notifications: false, ReminderIntervalMinutes: 45}, l.Settings())
}

func TestUpdateSettings_Rejects(t *testing.T) {
	l := New()

	_, err := l.UpdateSettings(SettingsPatch{DailyGoal: ptr(0)})
	assert.True(t, IsValidation(err))

	_, err = l.UpdateSettings(SettingsPatch{ReminderIntervalMinutes: ptr(-1), Notifications: ptr(false)})
	assert.True(t, IsValidation(err))

	assert.Equal(t, DefaultSettings(), l.Settings())
}

func TestClearHistory_PreservesProfileAndSettings(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	_, err := l.CompleteOnboarding()
	require.NoError(t, err)
	_, err = l.UpdateProfile(ProfilePatch{Weight: ptr("70")})
	require.NoError(t, err)
	_, err = l.AddDrink(beverage.Water, 250)
	require.NoError(t, err)

	_, err = l.ClearHistory()
	require.NoError(t, err)

	doc := l.Document()
	assert.Empty(t, doc.DrinkHistory)
	assert.Empty(t, doc.DailyStats)
	assert.True(t, doc.OnBoarding)
	assert.Equal(t, "70", doc.Profile.Weight)
	assert.Equal(t, 2450, doc.Settings.DailyGoal)
}

func TestCompleteOnboarding_Idempotent(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		_, err := l.CompleteOnboarding()
		require.NoError(t, err)
		assert.True(t, l.OnBoarding())
	}
}

func TestApply_ReplayRebuildsLedger(t *testing.T) {
	l, clock := newTestLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	var events []Event
	record := func(ev Event, err error) {
		t.Helper()
		require.NoError(t, err)
		events = append(events, ev)
	}

	ev1, err := l.AddDrink(beverage.Water, 500)
	record(ev1, err)
	ev2, err := l.UpdateProfile(ProfilePatch{Weight: ptr("82"), Name: ptr("Sam")})
	record(ev2, err)
	clock.Advance(time.Hour)
	ev3, err := l.AddDrink(beverage.Spirits, 40)
	record(ev3, err)
	ev4, err := l.UpdateSettings(SettingsPatch{Notifications: ptr(false)})
	record(ev4, err)
	ev5, err := l.CompleteOnboarding()
	record(ev5, err)

	replayed := New(WithLocation(time.UTC))
	for _, ev := range events {
		require.NoError(t, replayed.Apply(ev))
	}

	assert.Equal(t, l.Document(), replayed.Document())
}

func TestApply_RejectsNil(t *testing.T) {
	l := New()
	assert.Error(t, l.Apply(nil))
}

func TestDocument_IsDeepCopy(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	_, err := l.AddDrink(beverage.Water, 500)
	require.NoError(t, err)

	doc := l.Document()
	doc.DrinkHistory[0].Volume = 9999
	stat := doc.DailyStats["2026-03-02"]
	stat.Drinks[0].Volume = 9999

	assert.Equal(t, 500, l.DrinkHistory()[0].Volume)
	fresh, _ := l.DailyStat("2026-03-02")
	assert.Equal(t, 500, fresh.Drinks[0].Volume)
}
