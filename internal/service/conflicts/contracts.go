package conflicts

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ResourceBookings чтение подтвержденных бронирований ресурса
type ResourceBookings interface {
	FindByResourceAndDate(ctx context.Context, resourceID string, date time.Time) ([]*domain.BookingRecord, error)
	FindByResourceInRange(ctx context.Context, resourceID string, from, to time.Time) ([]*domain.BookingRecord, error)
}

// CustomerBookings чтение подтвержденных бронирований клиента
type CustomerBookings interface {
	FindByCustomerEmailAndDate(ctx context.Context, email string, date time.Time, timeOfDay *types.TimeString) ([]*domain.BookingRecord, error)
	FindByCustomerEmailInRange(ctx context.Context, email string, from, to time.Time) ([]*domain.BookingRecord, error)
}
