package domain

import (
	"errors"
	"time"
)

// ErrInvalidInterval is returned when end is not after start
var ErrInvalidInterval = errors.New("domain: interval end must be after start")

// TimeSlot is a candidate or confirmed interval [Start, End) on one resource
type TimeSlot struct {
	Start      time.Time
	End        time.Time
	ResourceID string
}

// NewTimeSlot builds a slot of the given duration
func NewTimeSlot(start time.Time, durationMinutes int, resourceID string) TimeSlot {
	return TimeSlot{
		Start:      start,
		End:        start.Add(time.Duration(durationMinutes) * time.Minute),
		ResourceID: resourceID,
	}
}

// Validate checks end > start
func (s TimeSlot) Validate() error {
	if !s.End.After(s.Start) {
		return ErrInvalidInterval
	}
	return nil
}

// DurationMinutes returns the slot length in minutes
func (s TimeSlot) DurationMinutes() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}

// Overlaps applies the half-open interval test to another slot, ignoring the resource
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return Overlaps(s.Start, s.End, other.Start, other.End)
}

// Overlaps is the canonical conflict test for [s1,e1) and [s2,e2).
// Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}
