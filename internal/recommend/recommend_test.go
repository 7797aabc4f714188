package recommend

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/myh2o/internal/beverage"
	"github.com/roach88/myh2o/internal/ledger"
	"github.com/roach88/myh2o/internal/testutil"
)

// fakeSource serves a fixed settings value and stat map.
type fakeSource struct {
	settings ledger.UserSettings
	stats    map[string]ledger.DailyStat
}

func (f fakeSource) Settings() ledger.UserSettings { return f.settings }
func (f fakeSource) Location() *time.Location      { return time.UTC }
func (f fakeSource) DailyStat(date string) (ledger.DailyStat, bool) {
	s, ok := f.stats[date]
	return s, ok
}

func newLedger(t *testing.T, now time.Time) (*ledger.Ledger, *testutil.FixedClock) {
	t.Helper()
	clock := testutil.NewFixedClock(now)
	return ledger.New(
		ledger.WithClock(clock),
		ledger.WithIDGenerator(testutil.NewSequentialIDs("d")),
		ledger.WithLocation(time.UTC),
	), clock
}

func TestRecommendations_FreshLedger(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	l, _ := newLedger(t, now)

	h := Recommendations(l, now)
	assert.Equal(t, Hydration{
		AdjustedDailyGoal: 2300,
		BaseGoal:          2300,
		RemainingToGoal:   2300,
	}, h)
}

func TestRecommendations_WaterThenCoffee(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	l, _ := newLedger(t, now)

	_, err := l.AddDrink(beverage.Water, 500)
	require.NoError(t, err)

	h := Recommendations(l, now)
	assert.Equal(t, 500, h.TotalDrankToday)
	assert.Zero(t, h.ExtraWaterNeeded)
	assert.Equal(t, 2300.0, h.AdjustedDailyGoal)
	assert.Equal(t, 22, h.ProgressPercent)

	_, err = l.AddDrink(beverage.Coffee, 100)
	require.NoError(t, err)

	h = Recommendations(l, now)
	assert.Equal(t, 600, h.TotalDrankToday)
	assert.Equal(t, 400.0, h.ExtraWaterNeeded)
	assert.Equal(t, 2700.0, h.AdjustedDailyGoal)
	assert.Equal(t, 2100.0, h.RemainingToGoal)
	assert.Equal(t, 22, h.ProgressPercent)
	assert.Equal(t, 2300, h.BaseGoal)
}

func TestRecommendations_OnlyCountsToday(t *testing.T) {
	l, clock := newLedger(t, time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))

	_, err := l.AddDrink(beverage.Spirits, 50)
	require.NoError(t, err)

	now := clock.Advance(12 * time.Hour)
	h := Recommendations(l, now)
	assert.Zero(t, h.TotalDrankToday)
	assert.Zero(t, h.ExtraWaterNeeded)
	assert.Equal(t, 2300.0, h.AdjustedDailyGoal)
}

func TestRecommendations_ExceededGoal(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	l, _ := newLedger(t, now)

	for i := 0; i < 3; i++ {
		_, err := l.AddDrink(beverage.Water, 1000)
		require.NoError(t, err)
	}

	h := Recommendations(l, now)
	assert.Equal(t, 100, h.ProgressPercent)
	assert.Equal(t, -700.0, h.RemainingToGoal)
}

func TestRecommendations_ZeroGoalIsZeroPercent(t *testing.T) {
	src := fakeSource{
		settings: ledger.UserSettings{DailyGoal: 0},
		stats: map[string]ledger.DailyStat{
			"2026-03-02": {Date: "2026-03-02", TotalVolume: 500, Drinks: []ledger.DrinkEntry{{Type: beverage.Water, Volume: 500}}},
		},
	}

	h := Recommendations(src, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, h.ProgressPercent)
	assert.Equal(t, -500.0, h.RemainingToGoal)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		drank int
		goal  float64
		want  int
	}{
		{0, 2300, 0},
		{500, 2300, 22},
		{600, 2700, 22},
		{1150, 2300, 50},
		{2299, 2300, 100},
		{5000, 2300, 100},
		{100, 0, 0},
		{100, -10, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.drank, tt.goal), "%d/%v", tt.drank, tt.goal)
	}
}

func TestWeeklySeries(t *testing.T) {
	// 2026-03-04 is a Wednesday.
	l, clock := newLedger(t, time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC))

	_, err := l.AddDrink(beverage.Water, 900) // outside the window
	require.NoError(t, err)
	clock.Set(time.Date(2026, 2, 26, 10, 0, 0, 0, time.UTC))
	_, err = l.AddDrink(beverage.Water, 2000)
	require.NoError(t, err)
	clock.Set(time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC))
	_, err = l.AddDrink(beverage.Water, 1500)
	require.NoError(t, err)
	clock.Set(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	_, err = l.AddDrink(beverage.Tea, 250)
	require.NoError(t, err)
	clock.Set(time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC))
	_, err = l.AddDrink(beverage.Water, 750)
	require.NoError(t, err)

	days := WeeklySeries(l, clock.Now())
	require.Len(t, days, 7)

	assert.Equal(t, []DayPoint{
		{Date: "2026-02-26", DayLabel: "T", Liters: 2},
		{Date: "2026-02-27", DayLabel: "F", Liters: 1.5},
		{Date: "2026-02-28", DayLabel: "S", Liters: 0},
		{Date: "2026-03-01", DayLabel: "S", Liters: 0},
		{Date: "2026-03-02", DayLabel: "M", Liters: 0.25},
		{Date: "2026-03-03", DayLabel: "T", Liters: 0},
		{Date: "2026-03-04", DayLabel: "W", Liters: 0.75},
	}, days)
}

func TestChartMax(t *testing.T) {
	days := []DayPoint{{Liters: 1}, {Liters: 3.2}, {Liters: 0}}

	assert.Equal(t, 3.2, ChartMax(Hydration{AdjustedDailyGoal: 2300}, days))
	assert.Equal(t, 4.1, ChartMax(Hydration{AdjustedDailyGoal: 4100}, days))
	assert.Equal(t, MinChartLiters, ChartMax(Hydration{AdjustedDailyGoal: 1200}, []DayPoint{{Liters: 0.4}}))
}

func TestWeeklyChart(t *testing.T) {
	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	l, _ := newLedger(t, now)
	_, err := l.AddDrink(beverage.Coffee, 200) // +800 debt -> 3.1 L goal
	require.NoError(t, err)

	w := WeeklyChart(l, now)
	assert.Len(t, w.Days, 7)
	assert.InDelta(t, 3.1, w.MaxScale, 1e-9)
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		percent int
		want    Tier
	}{
		{0, TierStart},
		{24, TierStart},
		{25, TierQuarter},
		{49, TierQuarter},
		{50, TierHalf},
		{74, TierHalf},
		{75, TierNearly},
		{99, TierNearly},
		{100, TierCompleted},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.percent), "percent %d", tt.percent)
	}
}

func TestSuggestion_PicksFromMatchingTier(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	l, _ := newLedger(t, now)
	rnd := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 20; i++ {
		assert.Contains(t, Messages(TierStart), Suggestion(l, now, rnd))
	}

	_, err := l.AddDrink(beverage.Water, 1200) // 52%
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.Contains(t, Messages(TierHalf), Suggestion(l, now, rnd))
	}

	_, err = l.AddDrink(beverage.Water, 1200)
	require.NoError(t, err)
	assert.Contains(t, Messages(TierCompleted), Suggestion(l, now, rnd))
}

func TestSuggestion_UsesAdjustedGoal(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	l, _ := newLedger(t, now)

	// 1200 mL of water alone is 52% of 2300, but 300 mL coffee adds 1200 mL
	// of debt: 1500 / 3500 = 43%.
	_, err := l.AddDrink(beverage.Water, 1200)
	require.NoError(t, err)
	_, err = l.AddDrink(beverage.Coffee, 300)
	require.NoError(t, err)

	rnd := rand.New(rand.NewPCG(7, 7))
	assert.Contains(t, Messages(TierQuarter), Suggestion(l, now, rnd))
}

func TestMessages_PoolSizes(t *testing.T) {
	for tier := TierStart; tier <= TierCompleted; tier++ {
		assert.Len(t, Messages(tier), 5)
	}
}
