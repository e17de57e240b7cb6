package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/conflicts"
)

// BookingRepository интерфейс хранилища бронирований
type BookingRepository interface {
	Create(ctx context.Context, record *domain.BookingRecord) (*domain.BookingRecord, error)
	ClaimForward(ctx context.Context, id string, lease time.Duration) (bool, error)
	MarkForwarded(ctx context.Context, id string, externalJobID string) error
	MarkForwardFailed(ctx context.Context, id string, reason string) error
}

// SlotChecker проверка конфликтов на ресурсе
type SlotChecker interface {
	Check(ctx context.Context, slot domain.TimeSlot, excludingCustomer string) (*conflicts.Result, error)
}

// DuplicateChecker проверка пересечений у одного клиента
type DuplicateChecker interface {
	HasDuplicate(ctx context.Context, email string, start, end time.Time) (*conflicts.DuplicateResult, error)
}

// OfferingCatalog каталог услуг
type OfferingCatalog interface {
	Get(id string) (*domain.ServiceOffering, error)
}

// SlotCalendar правила рабочего времени
type SlotCalendar interface {
	ValidateStart(slot domain.TimeSlot, offering *domain.ServiceOffering) error
	Hours() domain.BusinessHours
}

// JobSink внешняя система заявок
type JobSink interface {
	SubmitJob(ctx context.Context, record *domain.BookingRecord) (string, error)
}

// BusyCache кеш внешней занятости, сбрасывается после передачи заявки
type BusyCache interface {
	Invalidate(ctx context.Context, date time.Time, resourceID string)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчики попыток бронирования и передачи в job sink
type Metrics interface {
	IncBookingAttempt(outcome string)
	IncSinkForward(outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
