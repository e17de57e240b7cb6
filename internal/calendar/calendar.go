package calendar

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrNonWorkingDay дата попадает на исключенный день недели
	ErrNonWorkingDay = errors.New("calendar: non-working day")

	// ErrOutsideBusinessHours слот выходит за рабочие часы
	ErrOutsideBusinessHours = errors.New("calendar: slot is outside business hours")

	// ErrNotInFuture начало слота не в будущем
	ErrNotInFuture = errors.New("calendar: slot start is not in the future")

	// ErrMinimumNotice нарушено минимальное время до начала
	ErrMinimumNotice = errors.New("calendar: minimum notice violated")
)

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Calendar генерирует сетку слотов по рабочим часам, ничего не зная о бронированиях
type Calendar struct {
	hours domain.BusinessHours
	clock TimeProvider
}

// New создает календарь. clock == nil означает реальное время
func New(hours domain.BusinessHours, clock TimeProvider) *Calendar {
	if clock == nil {
		clock = &RealTimeProvider{}
	}
	return &Calendar{hours: hours, clock: clock}
}

// Hours возвращает рабочие часы
func (c *Calendar) Hours() domain.BusinessHours {
	return c.hours
}

// Now текущее время по часам календаря
func (c *Calendar) Now() time.Time {
	return c.clock.Now()
}

// GenerateSlots возвращает упорядоченную по возрастанию сетку слотов на дату
// Слоты идут с начала рабочего дня с шагом длительности услуги и не пересекаются.
// Слот отбрасывается, если он заканчивается после закрытия или начинается раньше now + minimumNotice.
// Для прошедшей даты или выходного возвращается пустой список
func (c *Calendar) GenerateSlots(date time.Time, offering *domain.ServiceOffering, resourceID string) []domain.TimeSlot {
	return generate(c.hours, c.clock.Now(), date, offering, resourceID)
}

// ValidateStart проверяет, что слот можно забронировать в момент now
func (c *Calendar) ValidateStart(slot domain.TimeSlot, offering *domain.ServiceOffering) error {
	now := c.clock.Now()

	if !slot.Start.After(now) {
		return ErrNotInFuture
	}
	if slot.Start.Before(offering.EarliestStart(now)) {
		return ErrMinimumNotice
	}
	if !c.hours.IsWorkingDay(slot.Start) {
		return ErrNonWorkingDay
	}
	if !c.hours.Contains(slot) {
		return ErrOutsideBusinessHours
	}
	return nil
}

func generate(
	hours domain.BusinessHours,
	now time.Time,
	date time.Time,
	offering *domain.ServiceOffering,
	resourceID string,
) []domain.TimeSlot {
	slots := make([]domain.TimeSlot, 0)

	if offering == nil || offering.DurationMinutes <= 0 {
		return slots
	}
	if !hours.IsWorkingDay(date) {
		return slots
	}

	open, closeAt := hours.Bounds(date)

	// Весь рабочий день уже прошел
	if !closeAt.After(now) {
		return slots
	}

	earliest := offering.EarliestStart(now)
	duration := offering.Duration()

	for start := open; !start.Add(duration).After(closeAt); start = start.Add(duration) {
		if !start.After(now) || start.Before(earliest) {
			continue
		}
		slots = append(slots, domain.TimeSlot{
			Start:      start,
			End:        start.Add(duration),
			ResourceID: resourceID,
		})
	}

	return slots
}
