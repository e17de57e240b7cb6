package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// BookingStatus represents the status of a booking record
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// SinkStatus tracks forwarding of a confirmed booking to the external job sink
type SinkStatus string

const (
	SinkPending    SinkStatus = "pending"
	SinkForwarding SinkStatus = "forwarding" // claimed by one forwarder, see ForwardLease
	SinkForwarded  SinkStatus = "forwarded"
	SinkFailed     SinkStatus = "failed"
)

// ForwardLease returns how long a forward claim excludes other forwarders.
// It outlives the sink timeout so an attempt still in flight is never repeated
func ForwardLease(sinkTimeout time.Duration) time.Duration {
	return 2 * sinkTimeout
}

// BookingRecord is the durable booking entity
type BookingRecord struct {
	ID                string
	ResourceID        string
	Date              time.Time        // Календарный день в часовом поясе бизнеса
	TimeOfDay         types.TimeString // Время начала "HH:MM" в часовом поясе бизнеса
	StartAt           time.Time
	EndAt             time.Time
	ServiceOfferingID string

	CustomerName   string
	CustomerEmail  string
	CustomerPhone  *string
	ServiceAddress *string
	Notes          *string

	ExternalJobID *string
	SinkStatus    SinkStatus
	SinkError     *string

	Status      BookingStatus
	CancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the record still occupies its interval
func (b *BookingRecord) IsActive() bool {
	return b.Status == StatusConfirmed
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *BookingRecord) CanBeCancelled() bool {
	return b.Status == StatusConfirmed
}

// OwnedBy compares the owner email case-insensitively
func (b *BookingRecord) OwnedBy(email string) bool {
	return email != "" && NormalizeEmail(b.CustomerEmail) == NormalizeEmail(email)
}

// Slot returns the occupied interval
func (b *BookingRecord) Slot() TimeSlot {
	return TimeSlot{Start: b.StartAt, End: b.EndAt, ResourceID: b.ResourceID}
}

// ClaimableForForward returns true if the booking may be claimed for a job sink forward:
// it has not reached the sink and no forward claim newer than staleBefore holds it
func (b *BookingRecord) ClaimableForForward(staleBefore time.Time) bool {
	if !b.IsActive() {
		return false
	}
	switch b.SinkStatus {
	case SinkPending, SinkFailed:
		return true
	case SinkForwarding:
		return b.UpdatedAt.Before(staleBefore)
	default:
		return false
	}
}

// Clone returns a deep copy so callers cannot mutate stored state
func (b *BookingRecord) Clone() *BookingRecord {
	if b == nil {
		return nil
	}
	c := *b
	c.CustomerPhone = cloneString(b.CustomerPhone)
	c.ServiceAddress = cloneString(b.ServiceAddress)
	c.Notes = cloneString(b.Notes)
	c.ExternalJobID = cloneString(b.ExternalJobID)
	c.SinkError = cloneString(b.SinkError)
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
