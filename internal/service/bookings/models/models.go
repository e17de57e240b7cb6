package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модели

// CheckSlotRequest запрос на проверку слота
type CheckSlotRequest struct {
	Date              time.Time
	Time              string // "HH:MM" в часовом поясе бизнеса
	ServiceOfferingID string // Пустой - проверяется только момент начала
	ResourceID        string
	CustomerEmail     string // Опционально: позволяет отличить свою запись от чужой
}

// FindCustomerBookingsRequest запрос на поиск бронирований клиента на дату
type FindCustomerBookingsRequest struct {
	CustomerEmail string
	Date          time.Time
	Time          *string // Если указан, ищутся записи, совпадающие с этим временем или покрывающие его
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID                string  `json:"id"`
	ResourceID        string  `json:"resourceId"`
	Date              string  `json:"date"` // "2026-10-20"
	Time              string  `json:"time"` // "10:00"
	Start             string  `json:"start"`
	End               string  `json:"end"`
	DurationMinutes   int     `json:"durationMinutes"`
	ServiceOfferingID string  `json:"serviceOfferingId"`
	CustomerName      string  `json:"customerName"`
	CustomerEmail     string  `json:"customerEmail"`
	CustomerPhone     *string `json:"customerPhone,omitempty"`
	ServiceAddress    *string `json:"serviceAddress,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	Status            string  `json:"status"`

	ExternalJobID *string `json:"externalJobId,omitempty"`
	SinkStatus    string  `json:"sinkStatus"`

	CancelledAt *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// SlotStatusResponse состояние слота для клиента
type SlotStatusResponse struct {
	IsAvailable      bool             `json:"isAvailable"`
	IsBookedByOthers bool             `json:"isBookedByOthers"`
	IsBookedByUser   bool             `json:"isBookedByUser"`
	BookedBy         *string          `json:"bookedBy,omitempty"` // Только имя владельца
	UserBooking      *BookingResponse `json:"userBooking,omitempty"`
}

// DuplicateCheckResponse результат проверки пересечения у клиента
type DuplicateCheckResponse struct {
	IsDuplicate       bool             `json:"isDuplicate"`
	ConflictingRecord *BookingResponse `json:"conflictingRecord,omitempty"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.BookingRecord) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                b.ID,
		ResourceID:        b.ResourceID,
		Date:              b.Date.Format(domain.DateFormat),
		Time:              b.TimeOfDay.String(),
		Start:             b.StartAt.Format(time.RFC3339),
		End:               b.EndAt.Format(time.RFC3339),
		DurationMinutes:   b.Slot().DurationMinutes(),
		ServiceOfferingID: b.ServiceOfferingID,
		CustomerName:      b.CustomerName,
		CustomerEmail:     b.CustomerEmail,
		CustomerPhone:     b.CustomerPhone,
		ServiceAddress:    b.ServiceAddress,
		Notes:             b.Notes,
		Status:            string(b.Status),
		ExternalJobID:     b.ExternalJobID,
		SinkStatus:        string(b.SinkStatus),
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}

	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.BookingRecord) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}
