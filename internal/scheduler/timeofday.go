package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timePattern = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*([AaPp][Mm])\s*$`)

// TimeOfDay is a wall-clock time in 24-hour form.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses a 12-hour "H:MM AM" string. The hour takes one or
// two digits and the minute exactly two, so "7:05 AM" parses and "7:5 AM"
// returns an InvalidTimeFormatError. The AM/PM marker is case-insensitive.
// 12 AM is hour 0 and 12 PM is hour 12.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, &InvalidTimeFormatError{Value: s}
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return TimeOfDay{}, &InvalidTimeFormatError{Value: s}
	}

	switch strings.ToUpper(m[3]) {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// NextFireTime returns today's occurrence of tod in loc, or tomorrow's if
// today's is already before now.
func NextFireTime(tod TimeOfDay, now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()

	fire := time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, loc)
	if fire.Before(now) {
		fire = time.Date(y, m, d+1, tod.Hour, tod.Minute, 0, 0, loc)
	}
	return fire
}
