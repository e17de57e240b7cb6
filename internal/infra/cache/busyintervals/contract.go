package busyintervals

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Source внешний источник занятых интервалов (job sink)
type Source interface {
	ListBusy(ctx context.Context, date time.Time, resourceID string) ([]domain.TimeSlot, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
