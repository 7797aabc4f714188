package recommend

import (
	"math"
	"time"

	"github.com/roach88/myh2o/internal/ledger"
)

// WeekDays is the length of the trailing series.
const WeekDays = 7

// MinChartLiters is the floor of the chart scale so small goals still get a
// legible axis.
const MinChartLiters = 2.5

var dayLetters = [...]string{"S", "M", "T", "W", "T", "F", "S"}

// DayPoint is one bar of the weekly chart.
type DayPoint struct {
	Date     string  `json:"date"`     // YYYY-MM-DD
	DayLabel string  `json:"dayLabel"` // weekday initial
	Liters   float64 `json:"liters"`
}

// WeeklySeries returns the last 7 calendar dates, oldest first, today last.
// Dates without drinks report 0 L.
func WeeklySeries(src Source, now time.Time) []DayPoint {
	loc := src.Location()
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	points := make([]DayPoint, 0, WeekDays)
	for i := WeekDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := day.Format(time.DateOnly)

		var volume int
		if stat, ok := src.DailyStat(key); ok {
			volume = stat.TotalVolume
		}

		points = append(points, DayPoint{
			Date:     key,
			DayLabel: dayLetters[day.Weekday()],
			Liters:   float64(volume) / 1000,
		})
	}
	return points
}

// ChartMax returns the chart's scale maximum in liters: the largest of the
// adjusted goal, the biggest day in the series, and MinChartLiters.
func ChartMax(h Hydration, points []DayPoint) float64 {
	m := math.Max(h.AdjustedDailyGoal/1000, MinChartLiters)
	for _, p := range points {
		m = math.Max(m, p.Liters)
	}
	return m
}

// Week bundles the series with its scale for callers that render a chart.
type Week struct {
	Days     []DayPoint `json:"days"`
	MaxScale float64    `json:"maxScale"`
}

// WeeklyChart computes the series and its scale together.
func WeeklyChart(src Source, now time.Time) Week {
	days := WeeklySeries(src, now)
	return Week{Days: days, MaxScale: ChartMax(Recommendations(src, now), days)}
}

// ensure *ledger.Ledger satisfies Source.
var _ Source = (*ledger.Ledger)(nil)
