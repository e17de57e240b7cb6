package conflicts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// DuplicateGuard не дает одному клиенту держать два пересекающихся бронирования на любых ресурсах
type DuplicateGuard struct {
	store CustomerBookings
	hours domain.BusinessHours
}

// NewDuplicateGuard создает проверку дубликатов
func NewDuplicateGuard(store CustomerBookings, hours domain.BusinessHours) *DuplicateGuard {
	return &DuplicateGuard{store: store, hours: hours}
}

// HasDuplicate ищет у клиента подтвержденное бронирование, пересекающее [start, end).
// Из хранилища читается окно ±24 часа вокруг интервала
func (g *DuplicateGuard) HasDuplicate(ctx context.Context, email string, start, end time.Time) (*DuplicateResult, error) {
	if !end.After(start) {
		return nil, domain.ErrInvalidInterval
	}

	records, err := g.store.FindByCustomerEmailInRange(
		ctx,
		email,
		start.Add(-domain.DuplicateSweepWindow),
		end.Add(domain.DuplicateSweepWindow),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: HasDuplicate: %w", ErrLoadBookings, err)
	}

	for _, r := range records {
		if !r.IsActive() || !r.OwnedBy(email) {
			continue
		}
		if domain.Overlaps(r.StartAt, r.EndAt, start, end) {
			return &DuplicateResult{IsDuplicate: true, ConflictingRecord: r}, nil
		}
	}

	return &DuplicateResult{IsDuplicate: false}, nil
}

// HasExactOrOverlapping возвращает записи клиента с точным совпадением даты и времени,
// а также записи, пересекающие [timeOfDay, timeOfDay+durationMinutes).
// При durationMinutes == 0 проверяется сам момент
func (g *DuplicateGuard) HasExactOrOverlapping(
	ctx context.Context,
	email string,
	date time.Time,
	timeOfDay types.TimeString,
	durationMinutes int,
) ([]*domain.BookingRecord, error) {
	day := g.hours.Day(date)

	exact, err := g.store.FindByCustomerEmailAndDate(ctx, email, day, &timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("%w: HasExactOrOverlapping - exact: %w", ErrLoadBookings, err)
	}

	width := time.Duration(durationMinutes) * time.Minute
	if width <= 0 {
		width = domain.InstantCheckWidth
	}

	at := timeOfDay.On(day, day.Location())
	overlapping, err := g.store.FindByCustomerEmailInRange(ctx, email, at, at.Add(width))
	if err != nil {
		return nil, fmt.Errorf("%w: HasExactOrOverlapping - overlap: %w", ErrLoadBookings, err)
	}

	seen := make(map[string]struct{}, len(exact)+len(overlapping))
	matches := make([]*domain.BookingRecord, 0, len(exact)+len(overlapping))
	for _, r := range append(exact, overlapping...) {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		matches = append(matches, r)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].StartAt.Before(matches[j].StartAt)
	})

	return matches, nil
}
