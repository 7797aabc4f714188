package ledger

import (
	"time"

	"github.com/roach88/myh2o/internal/beverage"
)

// Gender is the profile gender selection.
type Gender string

const (
	GenderMen   Gender = "men"
	GenderWomen Gender = "women"
	GenderOther Gender = "other"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderOther:
		return true
	}
	return false
}

// WeightUnit is the unit the profile weight is entered in.
type WeightUnit string

const (
	Kilograms WeightUnit = "kg"
	Pounds    WeightUnit = "lbs"
)

// Valid reports whether u is kg or lbs.
func (u WeightUnit) Valid() bool {
	return u == Kilograms || u == Pounds
}

// DrinkEntry is one logged drink. Immutable once created.
type DrinkEntry struct {
	ID               string        `json:"id"`
	Type             beverage.Type `json:"type"`
	Volume           int           `json:"volume"`           // mL, > 0
	Timestamp        time.Time     `json:"timestamp"`        // UTC
	ExtraWaterNeeded float64       `json:"extraWaterNeeded"` // mL, 0 for Water
}

// DailyStat aggregates the drinks logged on one local calendar date.
type DailyStat struct {
	Date        string       `json:"date"`        // YYYY-MM-DD
	TotalVolume int          `json:"totalVolume"` // raw beverage volume, debt excluded
	Drinks      []DrinkEntry `json:"drinks"`
}

// UserSettings holds the base goal and reminder preferences.
type UserSettings struct {
	DailyGoal               int  `json:"dailyGoal"`
	Notifications           bool `json:"notifications"`
	ReminderIntervalMinutes int  `json:"reminderInterval"`
}

// UserProfile holds the user's body data and sleep schedule.
// Time fields use the 12-hour "H:MM AM" form.
type UserProfile struct {
	Name            string     `json:"name"`
	Avatar          string     `json:"avatar"`
	Gender          Gender     `json:"gender"`
	WeightUnit      WeightUnit `json:"weightUnit"`
	Age             string     `json:"age"`
	Weight          string     `json:"weight"`
	WorkdayWakeTime string     `json:"workdayWakeTime"`
	WorkdayBedTime  string     `json:"workdayBedTime"`
	WeekendWakeTime string     `json:"weekendWakeTime"`
	WeekendBedTime  string     `json:"weekendBedTime"`
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Name            *string     `json:"name,omitempty" yaml:"name,omitempty"`
	Avatar          *string     `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Gender          *Gender     `json:"gender,omitempty" yaml:"gender,omitempty"`
	WeightUnit      *WeightUnit `json:"weightUnit,omitempty" yaml:"weightUnit,omitempty"`
	Age             *string     `json:"age,omitempty" yaml:"age,omitempty"`
	Weight          *string     `json:"weight,omitempty" yaml:"weight,omitempty"`
	WorkdayWakeTime *string     `json:"workdayWakeTime,omitempty" yaml:"workdayWakeTime,omitempty"`
	WorkdayBedTime  *string     `json:"workdayBedTime,omitempty" yaml:"workdayBedTime,omitempty"`
	WeekendWakeTime *string     `json:"weekendWakeTime,omitempty" yaml:"weekendWakeTime,omitempty"`
	WeekendBedTime  *string     `json:"weekendBedTime,omitempty" yaml:"weekendBedTime,omitempty"`
}

// SettingsPatch is a partial settings update. Nil fields are left untouched.
type SettingsPatch struct {
	DailyGoal               *int  `json:"dailyGoal,omitempty" yaml:"dailyGoal,omitempty"`
	Notifications           *bool `json:"notifications,omitempty" yaml:"notifications,omitempty"`
	ReminderIntervalMinutes *int  `json:"reminderInterval,omitempty" yaml:"reminderInterval,omitempty"`
}

// Document is the serializable form of the whole ledger.
type Document struct {
	OnBoarding    bool                 `json:"onBoarding"`
	Settings      UserSettings         `json:"settings"`
	DrinkHistory  []DrinkEntry         `json:"drinkHistory"`
	DailyStats    map[string]DailyStat `json:"dailyStats"`
	Profile       UserProfile          `json:"profile"`
	LastDrinkTime *time.Time           `json:"lastDrinkTime"`
}

// Defaults for a freshly created ledger.
const (
	DefaultDailyGoal        = 2300
	DefaultReminderInterval = 60
)

// DefaultSettings returns the settings of a first-launch ledger.
func DefaultSettings() UserSettings {
	return UserSettings{
		DailyGoal:               DefaultDailyGoal,
		Notifications:           true,
		ReminderIntervalMinutes: DefaultReminderInterval,
	}
}

// DefaultProfile returns the profile of a first-launch ledger.
func DefaultProfile() UserProfile {
	return UserProfile{
		Gender:          GenderMen,
		WeightUnit:      Kilograms,
		WorkdayWakeTime: "7:00 AM",
		WorkdayBedTime:  "11:00 PM",
		WeekendWakeTime: "10:00 AM",
		WeekendBedTime:  "12:00 AM",
	}
}

// DefaultDocument returns the document of a first-launch ledger.
func DefaultDocument() Document {
	return Document{
		Settings:     DefaultSettings(),
		DrinkHistory: []DrinkEntry{},
		DailyStats:   map[string]DailyStat{},
		Profile:      DefaultProfile(),
	}
}

// DateKey returns the local calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
