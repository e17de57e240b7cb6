package get_availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/offerings"
)

const externalSourceName = "job_sink"

// UseCase строит доступность дня: сетка календаря минус локальные бронирования
// минус интервалы, занятые во внешней системе
type UseCase struct {
	calendar          SlotCalendar
	offerings         OfferingCatalog
	occupancy         OccupancyLoader
	external          ExternalBusySource
	metrics           Metrics
	defaultResourceID string
	logger            Logger
}

// NewUseCase создает новый экземпляр use case. external и metrics могут быть nil
func NewUseCase(
	calendar SlotCalendar,
	offerings OfferingCatalog,
	occupancy OccupancyLoader,
	external ExternalBusySource,
	metrics Metrics,
	defaultResourceID string,
	logger Logger,
) *UseCase {
	return &UseCase{
		calendar:          calendar,
		offerings:         offerings,
		occupancy:         occupancy,
		external:          external,
		metrics:           metrics,
		defaultResourceID: defaultResourceID,
		logger:            logger,
	}
}

// Execute выполняет use case получения доступности.
// Слот доступен, только если его не занимает ни локальная запись, ни внешний интервал.
// Сбой внешнего источника не скрывает локальные конфликты
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	resourceID := req.ResourceID
	if resourceID == "" {
		resourceID = uc.defaultResourceID
	}

	offering, err := uc.offerings.Get(req.ServiceOfferingID)
	if err != nil {
		if errors.Is(err, offerings.ErrOfferingNotFound) {
			uc.logger.Warn("GetAvailability: offering %q not found", req.ServiceOfferingID)
			return nil, ErrOfferingNotFound
		}
		return nil, fmt.Errorf("%w: failed to get offering: %v", ErrInternal, err)
	}

	hours := uc.calendar.Hours()
	day := hours.Day(req.Date)

	uc.logger.Info("GetAvailability: resource=%s, offering=%s, date=%s",
		resourceID, offering.ID, day.Format(domain.DateFormat))

	candidates := uc.calendar.GenerateSlots(day, offering, resourceID)

	response := &Response{
		Date:       day,
		ResourceID: resourceID,
		Offering:   *offering,
		Slots:      make([]Slot, 0, len(candidates)),
		BusinessHours: BusinessHours{
			Start:    hours.Start.String(),
			End:      hours.End.String(),
			Timezone: hours.TimezoneName(),
		},
	}

	if len(candidates) == 0 {
		return response, nil
	}

	occupancy, err := uc.occupancy.LoadDay(ctx, resourceID, day)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to load bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to load bookings: %w", ErrInternal, err)
	}

	busy, checked := uc.externalBusy(ctx, day, resourceID)
	response.ExternalChecked = checked

	available := 0
	for _, candidate := range candidates {
		slot := Slot{Start: candidate.Start, End: candidate.End, Available: true}

		switch {
		case occupancy.Conflict(candidate, "") != nil:
			slot.Available = false
			slot.Reason = ReasonBooked
		case overlapsAny(candidate, busy):
			slot.Available = false
			slot.Reason = ReasonExternal
		default:
			available++
		}

		response.Slots = append(response.Slots, slot)
	}

	uc.logger.Info("GetAvailability: %d/%d slots available for resource=%s, date=%s, external_checked=%t",
		available, len(response.Slots), resourceID, day.Format(domain.DateFormat), checked)

	return response, nil
}

func (uc *UseCase) externalBusy(ctx context.Context, day time.Time, resourceID string) ([]domain.TimeSlot, bool) {
	if uc.external == nil {
		return nil, false
	}

	busy, err := uc.external.ListBusy(ctx, day, resourceID)
	if err != nil {
		uc.logger.Warn("GetAvailability: external busy source unavailable, using local data only: %v", err)
		uc.incExternal("error")
		return nil, false
	}

	uc.incExternal("ok")
	return busy, true
}

func (uc *UseCase) incExternal(outcome string) {
	if uc.metrics != nil {
		uc.metrics.IncExternalBusyCheck(externalSourceName, outcome)
	}
}

func overlapsAny(slot domain.TimeSlot, busy []domain.TimeSlot) bool {
	for _, b := range busy {
		if domain.Overlaps(slot.Start, slot.End, b.Start, b.End) {
			return true
		}
	}
	return false
}
