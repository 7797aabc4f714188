package recommend

import (
	"math"
	"time"

	"github.com/roach88/myh2o/internal/beverage"
	"github.com/roach88/myh2o/internal/ledger"
)

// Source is the read-only view of a ledger the engine needs.
// *ledger.Ledger implements it.
type Source interface {
	Settings() ledger.UserSettings
	DailyStat(date string) (ledger.DailyStat, bool)
	Location() *time.Location
}

// Hydration is today's goal and progress.
type Hydration struct {
	// AdjustedDailyGoal is BaseGoal plus today's water debt (mL).
	AdjustedDailyGoal float64 `json:"adjustedDailyGoal"`
	BaseGoal          int     `json:"baseGoal"`
	TotalDrankToday   int     `json:"totalDrankToday"`
	ExtraWaterNeeded  float64 `json:"extraWaterNeeded"`

	// RemainingToGoal goes negative once the goal is exceeded. Clamp for display.
	RemainingToGoal float64 `json:"remainingToGoal"`

	ProgressPercent int `json:"progressPercent"` // 0..100
}

// Recommendations computes today's adjusted goal and progress.
func Recommendations(src Source, now time.Time) Hydration {
	loc := src.Location()
	today := ledger.DateKey(now, loc)
	stat, _ := src.DailyStat(today)

	var extra float64
	for _, d := range stat.Drinks {
		if d.Type != beverage.Water {
			extra += d.ExtraWaterNeeded
		}
	}

	base := src.Settings().DailyGoal
	adjusted := float64(base) + extra

	return Hydration{
		AdjustedDailyGoal: adjusted,
		BaseGoal:          base,
		TotalDrankToday:   stat.TotalVolume,
		ExtraWaterNeeded:  extra,
		RemainingToGoal:   adjusted - float64(stat.TotalVolume),
		ProgressPercent:   Percent(stat.TotalVolume, adjusted),
	}
}

// Percent returns clamp(round(drank / goal * 100), 0, 100). A non-positive
// goal yields 0.
func Percent(drank int, goal float64) int {
	if goal <= 0 {
		return 0
	}
	p := math.Round(float64(drank) / goal * 100)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return int(p)
}
