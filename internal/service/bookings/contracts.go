package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/conflicts"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.BookingRecord, error)
	FindByCustomerEmail(ctx context.Context, email string) ([]*domain.BookingRecord, error)
	FindByCustomerEmailAndDate(ctx context.Context, email string, date time.Time, timeOfDay *types.TimeString) ([]*domain.BookingRecord, error)
	Cancel(ctx context.Context, id string, requestingEmail string) (bool, error)
}

// SlotChecker проверка занятости слота на ресурсе
type SlotChecker interface {
	IsBooked(
		ctx context.Context,
		date time.Time,
		timeOfDay types.TimeString,
		durationMinutes int,
		resourceID string,
		excludingCustomer string,
	) (*conflicts.Result, error)
}

// DuplicateChecker поиск пересекающихся бронирований клиента
type DuplicateChecker interface {
	HasDuplicate(ctx context.Context, email string, start, end time.Time) (*conflicts.DuplicateResult, error)
	HasExactOrOverlapping(ctx context.Context, email string, date time.Time, timeOfDay types.TimeString, durationMinutes int) ([]*domain.BookingRecord, error)
}

// OfferingCatalog каталог услуг
type OfferingCatalog interface {
	Get(id string) (*domain.ServiceOffering, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
