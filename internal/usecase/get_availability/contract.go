package get_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/conflicts"
)

// SlotCalendar сетка слотов по рабочим часам
type SlotCalendar interface {
	GenerateSlots(date time.Time, offering *domain.ServiceOffering, resourceID string) []domain.TimeSlot
	Hours() domain.BusinessHours
}

// OfferingCatalog каталог услуг
type OfferingCatalog interface {
	Get(id string) (*domain.ServiceOffering, error)
}

// OccupancyLoader загружает занятость ресурса за день
type OccupancyLoader interface {
	LoadDay(ctx context.Context, resourceID string, date time.Time) (*conflicts.Occupancy, error)
}

// ExternalBusySource занятые интервалы, известные внешней системе
type ExternalBusySource interface {
	ListBusy(ctx context.Context, date time.Time, resourceID string) ([]domain.TimeSlot, error)
}

// Metrics счетчики обращений к внешнему источнику
type Metrics interface {
	IncExternalBusyCheck(source, outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
