package domain

import "time"

// ServiceOffering describes a bookable appointment kind
type ServiceOffering struct {
	ID                   string
	Title                string
	Description          string
	DurationMinutes      int
	MinimumNoticeMinutes int
	Price                *float64
	Currency             *string
}

// Duration returns the appointment length
func (o *ServiceOffering) Duration() time.Duration {
	return time.Duration(o.DurationMinutes) * time.Minute
}

// MinimumNotice returns how far ahead of now a booking must start
func (o *ServiceOffering) MinimumNotice() time.Duration {
	return time.Duration(o.MinimumNoticeMinutes) * time.Minute
}

// EarliestStart returns the first instant a booking may start at (exclusive)
func (o *ServiceOffering) EarliestStart(now time.Time) time.Time {
	return now.Add(o.MinimumNotice())
}
