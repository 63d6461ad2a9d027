package utils

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseSchedule combines a calendar date and a time of day in loc. Times may
// carry seconds ("14:30:00"), which must be zero.
func ParseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	tod, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, loc), nil
}

func ParseClock(clock string) (time.Time, error) {
	if t, err := time.Parse(ClockLayout, clock); err == nil {
		return t, nil
	}
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("time must be HH:MM")
	}
	if t.Second() != 0 {
		return time.Time{}, fmt.Errorf("time must be on a whole minute")
	}
	return t, nil
}

// FormatSchedule is the inverse of ParseSchedule.
func FormatSchedule(t time.Time, loc *time.Location) (date, clock string) {
	local := t.In(loc)
	return local.Format(DateLayout), local.Format(ClockLayout)
}
