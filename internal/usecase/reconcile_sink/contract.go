package reconcile_sink

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// BookingRepository интерфейс хранилища бронирований
type BookingRepository interface {
	FindPendingForward(ctx context.Context, lease time.Duration, limit int) ([]*domain.BookingRecord, error)
	ClaimForward(ctx context.Context, id string, lease time.Duration) (bool, error)
	MarkForwarded(ctx context.Context, id string, externalJobID string) error
	MarkForwardFailed(ctx context.Context, id string, reason string) error
}

// JobSink внешняя система заявок
type JobSink interface {
	SubmitJob(ctx context.Context, record *domain.BookingRecord) (string, error)
}

// BusyCache кеш внешней занятости
type BusyCache interface {
	Invalidate(ctx context.Context, date time.Time, resourceID string)
}

// Metrics счетчик передач в job sink
type Metrics interface {
	IncSinkForward(outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
