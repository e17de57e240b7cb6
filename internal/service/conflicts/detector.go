package conflicts

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Detector отвечает, занят ли интервал на ресурсе.
// Все проверки сводятся к одному тесту пересечения полуоткрытых интервалов domain.Overlaps.
type Detector struct {
	store ResourceBookings
	hours domain.BusinessHours
}

// NewDetector создает детектор конфликтов
func NewDetector(store ResourceBookings, hours domain.BusinessHours) *Detector {
	return &Detector{store: store, hours: hours}
}

// IsBooked проверяет слот, заданный датой и временем начала в часовом поясе бизнеса.
// Сначала точное совпадение HH:MM среди записей дня, затем пересечение интервалов.
// durationMinutes == 0 проверяет минутный интервал в момент начала.
// Запись клиента excludingCustomer конфликтом не считается
func (d *Detector) IsBooked(
	ctx context.Context,
	date time.Time,
	timeOfDay types.TimeString,
	durationMinutes int,
	resourceID string,
	excludingCustomer string,
) (*Result, error) {
	if durationMinutes < 0 {
		return nil, ErrInvalidDuration
	}

	day := d.hours.Day(date)

	records, err := d.store.FindByResourceAndDate(ctx, resourceID, day)
	if err != nil {
		return nil, fmt.Errorf("%w: IsBooked - by date: %w", ErrLoadBookings, err)
	}

	for _, r := range records {
		if r.IsActive() && r.TimeOfDay.Equal(timeOfDay) && !excluded(r, excludingCustomer) {
			return &Result{IsBooked: true, ConflictingRecord: r}, nil
		}
	}

	width := time.Duration(durationMinutes) * time.Minute
	if width == 0 {
		width = domain.InstantCheckWidth
	}

	start := timeOfDay.On(day, day.Location())
	return d.Check(ctx, domain.TimeSlot{Start: start, End: start.Add(width), ResourceID: resourceID}, excludingCustomer)
}

// Check проверяет пересечение слота с подтвержденными бронированиями его ресурса
func (d *Detector) Check(ctx context.Context, slot domain.TimeSlot, excludingCustomer string) (*Result, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	records, err := d.store.FindByResourceInRange(ctx, slot.ResourceID, slot.Start, slot.End)
	if err != nil {
		return nil, fmt.Errorf("%w: Check - by range: %w", ErrLoadBookings, err)
	}

	occupancy := &Occupancy{ResourceID: slot.ResourceID, records: records}
	if conflict := occupancy.Conflict(slot, excludingCustomer); conflict != nil {
		return &Result{IsBooked: true, ConflictingRecord: conflict}, nil
	}

	return &Result{IsBooked: false}, nil
}

// LoadDay читает занятость ресурса за календарный день одним запросом
func (d *Detector) LoadDay(ctx context.Context, resourceID string, date time.Time) (*Occupancy, error) {
	from := d.hours.Day(date)
	to := from.AddDate(0, 0, 1)

	records, err := d.store.FindByResourceInRange(ctx, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: LoadDay: %w", ErrLoadBookings, err)
	}

	return &Occupancy{ResourceID: resourceID, records: records}, nil
}

// Occupancy снимок подтвержденных бронирований ресурса
type Occupancy struct {
	ResourceID string
	records    []*domain.BookingRecord
}

// Conflict возвращает первую запись, пересекающую слот, или nil
func (o *Occupancy) Conflict(slot domain.TimeSlot, excludingCustomer string) *domain.BookingRecord {
	for _, r := range o.records {
		if !r.IsActive() || excluded(r, excludingCustomer) {
			continue
		}
		if r.ResourceID != slot.ResourceID {
			continue
		}
		if domain.Overlaps(r.StartAt, r.EndAt, slot.Start, slot.End) {
			return r
		}
	}
	return nil
}

// Records количество записей в снимке
func (o *Occupancy) Records() int {
	return len(o.records)
}

func excluded(r *domain.BookingRecord, excludingCustomer string) bool {
	return excludingCustomer != "" && r.OwnedBy(excludingCustomer)
}
