package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// BusinessHours daily working window of the resource in the business timezone
type BusinessHours struct {
	Start            types.TimeString
	End              types.TimeString
	Location         *time.Location
	ExcludedWeekdays []time.Weekday
}

// IsWorkingDay returns false for excluded weekdays
func (h BusinessHours) IsWorkingDay(date time.Time) bool {
	wd := date.In(h.loc()).Weekday()
	for _, excluded := range h.ExcludedWeekdays {
		if wd == excluded {
			return false
		}
	}
	return true
}

// Day returns local midnight of the calendar day containing date
func (h BusinessHours) Day(date time.Time) time.Time {
	y, m, d := date.In(h.loc()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, h.loc())
}

// Bounds returns the opening and closing instants for the calendar day
func (h BusinessHours) Bounds(date time.Time) (time.Time, time.Time) {
	day := h.Day(date)
	return h.Start.On(day, h.loc()), h.End.On(day, h.loc())
}

// Contains reports whether the slot lies fully inside the working window of its start day
func (h BusinessHours) Contains(slot TimeSlot) bool {
	if !h.IsWorkingDay(slot.Start) {
		return false
	}
	open, closeAt := h.Bounds(slot.Start)
	return !slot.Start.Before(open) && !slot.End.After(closeAt)
}

// TimezoneName returns the IANA name of the business timezone
func (h BusinessHours) TimezoneName() string {
	return h.loc().String()
}

func (h BusinessHours) loc() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}
