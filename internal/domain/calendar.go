package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the canonical wire and storage form for calendar dates.
// All businesses share a single timezone of record, so a date plus a
// minute-of-day offset fully identifies a slot.
const DateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

// TimeToMinutes converts a wall-clock "HH:MM" string to minutes since
// midnight.
func TimeToMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinutesToTime converts minutes since midnight back to "HH:MM".
func MinutesToTime(minutes int) string {
	if minutes < 0 || minutes >= minutesPerDay {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DayOfWeek returns the Monday-first weekday index (0 = Monday .. 6 = Sunday)
// for a canonical date string.
func DayOfWeek(date string) (int, error) {
	d, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	wd := d.Weekday()
	if wd == time.Sunday {
		return 6, nil
	}
	return int(wd) - 1, nil
}

// ParseDate parses a canonical YYYY-MM-DD date. The returned time is midnight
// UTC; callers must not derive wall-clock behavior from it.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, errors.New("invalid date, want YYYY-MM-DD")
	}
	return d, nil
}

// MinutesOfDay returns the minute-of-day offset of t.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
