package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	CustomerEmail     string  `json:"customerEmail"`
	CustomerName      string  `json:"customerName"`
	CustomerPhone     *string `json:"customerPhone,omitempty"`
	ServiceOfferingID string  `json:"serviceOfferingId"`
	Start             string  `json:"start"`         // RFC 3339
	End               *string `json:"end,omitempty"` // RFC 3339
	ResourceID        string  `json:"resourceId,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	Address           *string `json:"address,omitempty"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	Status        string  `json:"status"`
	ID            string  `json:"id"`
	ExternalJobID *string `json:"externalJobId,omitempty"`
	SinkForwarded bool    `json:"sinkForwarded"`
	SinkError     *string `json:"sinkError,omitempty"`
	OfferingTitle string  `json:"offeringTitle"`

	Booking models.BookingResponse `json:"booking"`
}

// ConflictResponse занятый интервал без контактных данных владельца
type ConflictResponse struct {
	CustomerName string `json:"customerName"`
	ResourceID   string `json:"resourceId"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Start        string `json:"start"`
	End          string `json:"end"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest() (*createBooking.Request, error) {
	start, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	req := &createBooking.Request{
		Customer: domain.CustomerIdentity{
			Email: r.CustomerEmail,
			Name:  r.CustomerName,
			Phone: r.CustomerPhone,
		},
		ServiceOfferingID: r.ServiceOfferingID,
		Start:             start,
		ResourceID:        r.ResourceID,
		ServiceAddress:    r.Address,
		Notes:             r.Notes,
	}

	if r.End != nil && *r.End != "" {
		end, err := time.Parse(time.RFC3339, *r.End)
		if err != nil {
			return nil, fmt.Errorf("end: %w", err)
		}
		req.End = &end
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		Status:        handlers.StatusSuccess,
		ID:            resp.Record.ID,
		ExternalJobID: resp.ExternalJobID,
		SinkForwarded: resp.SinkForwarded,
		SinkError:     resp.SinkError,
		OfferingTitle: resp.Offering.Title,
		Booking:       *models.FromDomainBooking(resp.Record),
	}
}

// conflictFromRejection возвращает nil, если записи нет
func conflictFromRejection(rejection *createBooking.RejectionError) interface{} {
	r := rejection.ConflictingRecord
	if r == nil {
		return nil
	}
	if rejection.Code == createBooking.CodeDuplicateBooking {
		return models.FromDomainBooking(r)
	}
	return &ConflictResponse{
		CustomerName: r.CustomerName,
		ResourceID:   r.ResourceID,
		Date:         r.Date.Format(domain.DateFormat),
		Time:         r.TimeOfDay.String(),
		Start:        r.StartAt.Format(time.RFC3339),
		End:          r.EndAt.Format(time.RFC3339),
	}
}
