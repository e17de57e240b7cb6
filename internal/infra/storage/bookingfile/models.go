package bookingfile

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const documentVersion = 1

// document формат файла хранилища
type document struct {
	Version  int             `json:"version"`
	Bookings []bookingRecord `json:"bookings"`
}

type bookingRecord struct {
	ID                string           `json:"id"`
	ResourceID        string           `json:"resourceId"`
	Date              string           `json:"date"`
	TimeOfDay         types.TimeString `json:"timeOfDay"`
	StartAt           time.Time        `json:"startAt"`
	EndAt             time.Time        `json:"endAt"`
	ServiceOfferingID string           `json:"serviceOfferingId"`
	CustomerName      string           `json:"customerName"`
	CustomerEmail     string           `json:"customerEmail"`
	CustomerPhone     *string          `json:"customerPhone,omitempty"`
	ServiceAddress    *string          `json:"serviceAddress,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
	ExternalJobID     *string          `json:"externalJobId,omitempty"`
	SinkStatus        string           `json:"sinkStatus"`
	SinkError         *string          `json:"sinkError,omitempty"`
	Status            string           `json:"status"`
	CancelledAt       *time.Time       `json:"cancelledAt,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func toFile(r *domain.BookingRecord) bookingRecord {
	return bookingRecord{
		ID:                r.ID,
		ResourceID:        r.ResourceID,
		Date:              r.Date.Format(domain.DateFormat),
		TimeOfDay:         r.TimeOfDay,
		StartAt:           r.StartAt,
		EndAt:             r.EndAt,
		ServiceOfferingID: r.ServiceOfferingID,
		CustomerName:      r.CustomerName,
		CustomerEmail:     r.CustomerEmail,
		CustomerPhone:     r.CustomerPhone,
		ServiceAddress:    r.ServiceAddress,
		Notes:             r.Notes,
		ExternalJobID:     r.ExternalJobID,
		SinkStatus:        string(r.SinkStatus),
		SinkError:         r.SinkError,
		Status:            string(r.Status),
		CancelledAt:       r.CancelledAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func fromFile(r bookingRecord) (*domain.BookingRecord, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, fmt.Errorf("booking %s: invalid date %q: %w", r.ID, r.Date, err)
	}

	return &domain.BookingRecord{
		ID:                r.ID,
		ResourceID:        r.ResourceID,
		Date:              date,
		TimeOfDay:         r.TimeOfDay,
		StartAt:           r.StartAt,
		EndAt:             r.EndAt,
		ServiceOfferingID: r.ServiceOfferingID,
		CustomerName:      r.CustomerName,
		CustomerEmail:     r.CustomerEmail,
		CustomerPhone:     r.CustomerPhone,
		ServiceAddress:    r.ServiceAddress,
		Notes:             r.Notes,
		ExternalJobID:     r.ExternalJobID,
		SinkStatus:        domain.SinkStatus(r.SinkStatus),
		SinkError:         r.SinkError,
		Status:            domain.BookingStatus(r.Status),
		CancelledAt:       r.CancelledAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}
