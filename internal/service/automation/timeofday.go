package automation

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock cutoff with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour format.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}

	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// Reached reports whether now, seen in loc, is at or after the cutoff.
// The comparison is lexicographic on (hour, minute).
func (t TimeOfDay) Reached(now time.Time, loc *time.Location) bool {
	if loc != nil {
		now = now.In(loc)
	}

	hour, minute := now.Hour(), now.Minute()

	return hour > t.Hour || (hour == t.Hour && minute >= t.Minute)
}

// String renders the cutoff as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
