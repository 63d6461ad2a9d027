package db

import "time"

// Slot is the half-open interval [Start, End) claimed by a booking.
type Slot struct {
	Start time.Time
	End   time.Time
}

func NewSlot(start time.Time, d SessionDuration) Slot {
	return Slot{Start: start, End: start.Add(d.Duration())}
}

// Overlaps reports whether two slots share any instant. Touching endpoints do not overlap.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}
