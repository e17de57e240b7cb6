package bookingfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ErrCorruptFile файл хранилища не читается как документ бронирований
var ErrCorruptFile = errors.New("bookingfile: corrupt storage file")

// TimeProvider источник текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Store файловое хранилище бронирований для одного узла.
// Все изменения сериализуются мьютексом: проверка пересечений и вставка выполняются
// под одной блокировкой, файл переписывается атомарно (temp + fsync + rename) до возврата.
// Ошибки совпадают с PostgreSQL-репозиторием (booking.Err*).
type Store struct {
	mu      sync.RWMutex
	path    string
	clock   TimeProvider
	records []*domain.BookingRecord
}

// Open загружает хранилище из файла, создавая каталог при необходимости.
// Отсутствующий файл означает пустое хранилище
func Open(path string, clock TimeProvider) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: Open - create dir: %w", booking.ErrStoreUnavailable, err)
	}

	s := &Store{path: path, clock: clock, records: make([]*domain.BookingRecord, 0)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Open - read file: %w", booking.ErrStoreUnavailable, err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	for _, fr := range doc.Bookings {
		record, err := fromFile(fr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		s.records = append(s.records, record)
	}

	return s, nil
}

// Create атомарно проверяет пересечения и добавляет подтвержденное бронирование
func (s *Store) Create(ctx context.Context, record *domain.BookingRecord) (*domain.BookingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if !existing.IsActive() || !domain.Overlaps(existing.StartAt, existing.EndAt, record.StartAt, record.EndAt) {
			continue
		}
		if existing.OwnedBy(record.CustomerEmail) {
			return nil, fmt.Errorf("%w: Create - overlaps booking %s", booking.ErrDuplicateBooking, existing.ID)
		}
		if existing.ResourceID == record.ResourceID {
			return nil, fmt.Errorf("%w: Create - overlaps booking %s", booking.ErrSlotNotAvailable, existing.ID)
		}
	}

	now := s.clock.Now()
	created := record.Clone()
	created.ID = uuid.NewString()
	created.Status = domain.StatusConfirmed
	created.SinkStatus = domain.SinkPending
	created.SinkError = nil
	created.CancelledAt = nil
	created.CreatedAt = now
	created.UpdatedAt = now

	s.records = append(s.records, created)
	if err := s.flush(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return nil, fmt.Errorf("%w: Create - persist: %w", booking.ErrStoreUnavailable, err)
	}

	return created.Clone(), nil
}

// GetByID получает бронирование по ID (в любом статусе)
func (s *Store) GetByID(_ context.Context, id string) (*domain.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

// FindByResourceAndDate возвращает подтвержденные бронирования ресурса на календарный день
func (s *Store) FindByResourceAndDate(_ context.Context, resourceID string, date time.Time) ([]*domain.BookingRecord, error) {
	day := date.Format(domain.DateFormat)
	return s.filter(func(r *domain.BookingRecord) bool {
		return r.IsActive() && r.ResourceID == resourceID && r.Date.Format(domain.DateFormat) == day
	}), nil
}

// FindByResourceInRange возвращает подтвержденные бронирования ресурса, пересекающие [from, to)
func (s *Store) FindByResourceInRange(_ context.Context, resourceID string, from, to time.Time) ([]*domain.BookingRecord, error) {
	return s.filter(func(r *domain.BookingRecord) bool {
		return r.IsActive() && r.ResourceID == resourceID && domain.Overlaps(r.StartAt, r.EndAt, from, to)
	}), nil
}

// FindByCustomerEmailAndDate возвращает подтвержденные бронирования клиента на день
func (s *Store) FindByCustomerEmailAndDate(
	_ context.Context,
	email string,
	date time.Time,
	timeOfDay *types.TimeString,
) ([]*domain.BookingRecord, error) {
	day := date.Format(domain.DateFormat)
	return s.filter(func(r *domain.BookingRecord) bool {
		if !r.IsActive() || !r.OwnedBy(email) || r.Date.Format(domain.DateFormat) != day {
			return false
		}
		return timeOfDay == nil || r.TimeOfDay.Equal(*timeOfDay)
	}), nil
}

// FindByCustomerEmailInRange возвращает подтвержденные бронирования клиента, пересекающие [from, to)
func (s *Store) FindByCustomerEmailInRange(_ context.Context, email string, from, to time.Time) ([]*domain.BookingRecord, error) {
	return s.filter(func(r *domain.BookingRecord) bool {
		return r.IsActive() && r.OwnedBy(email) && domain.Overlaps(r.StartAt, r.EndAt, from, to)
	}), nil
}

// FindByCustomerEmail возвращает всю историю клиента, включая отмененные
func (s *Store) FindByCustomerEmail(_ context.Context, email string) ([]*domain.BookingRecord, error) {
	return s.filter(func(r *domain.BookingRecord) bool {
		return r.OwnedBy(email)
	}), nil
}

// FindPendingForward возвращает до limit бронирований, еще не переданных в job sink.
// Записи, захваченные для передачи менее lease назад, пропускаются
func (s *Store) FindPendingForward(_ context.Context, lease time.Duration, limit int) ([]*domain.BookingRecord, error) {
	staleBefore := s.clock.Now().Add(-lease)
	pending := s.filter(func(r *domain.BookingRecord) bool {
		return r.ClaimableForForward(staleBefore)
	})
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// ClaimForward переводит запись в forwarding, если ее еще никто не передает.
// false - запись уже передана, отменена или захвачена другим процессом
func (s *Store) ClaimForward(ctx context.Context, id string, lease time.Duration) (bool, error) {
	claimed := false
	err := s.mutate(ctx, id, "ClaimForward", func(r *domain.BookingRecord, now time.Time) bool {
		if !r.ClaimableForForward(now.Add(-lease)) {
			return false
		}
		r.SinkStatus = domain.SinkForwarding
		claimed = true
		return true
	})
	if errors.Is(err, booking.ErrBookingNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// Cancel мягко отменяет бронирование владельца. false - записи нет, она чужая или уже отменена
func (s *Store) Cancel(ctx context.Context, id string, requestingEmail string) (bool, error) {
	cancelled := false
	err := s.mutate(ctx, id, "Cancel", func(r *domain.BookingRecord, now time.Time) bool {
		if !r.OwnedBy(requestingEmail) || !r.CanBeCancelled() {
			return false
		}
		r.Status = domain.StatusCancelled
		r.CancelledAt = &now
		cancelled = true
		return true
	})
	if errors.Is(err, booking.ErrBookingNotFound) {
		return false, nil
	}
	return cancelled, err
}

// MarkForwarded фиксирует успешную передачу в job sink
func (s *Store) MarkForwarded(ctx context.Context, id string, externalJobID string) error {
	return s.mutate(ctx, id, "MarkForwarded", func(r *domain.BookingRecord, _ time.Time) bool {
		r.SinkStatus = domain.SinkForwarded
		r.ExternalJobID = &externalJobID
		r.SinkError = nil
		return true
	})
}

// MarkForwardFailed фиксирует неудачную передачу в job sink
func (s *Store) MarkForwardFailed(ctx context.Context, id string, reason string) error {
	return s.mutate(ctx, id, "MarkForwardFailed", func(r *domain.BookingRecord, _ time.Time) bool {
		r.SinkStatus = domain.SinkFailed
		r.SinkError = &reason
		return true
	})
}

// mutate применяет fn к копии записи и сохраняет файл; при ошибке записи состояние не меняется
func (s *Store) mutate(ctx context.Context, id string, op string, fn func(r *domain.BookingRecord, now time.Time) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return booking.ErrBookingNotFound
	}

	now := s.clock.Now()
	updated := s.records[idx].Clone()
	if !fn(updated, now) {
		return nil
	}
	updated.UpdatedAt = now

	previous := s.records[idx]
	s.records[idx] = updated
	if err := s.flush(); err != nil {
		s.records[idx] = previous
		return fmt.Errorf("%w: %s - persist: %w", booking.ErrStoreUnavailable, op, err)
	}
	return nil
}

func (s *Store) filter(keep func(r *domain.BookingRecord) bool) []*domain.BookingRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.BookingRecord, 0)
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}

// flush вызывается под s.mu.Lock
func (s *Store) flush() error {
	doc := document{Version: documentVersion, Bookings: make([]bookingRecord, 0, len(s.records))}
	for _, r := range s.records {
		doc.Bookings = append(doc.Bookings, toFile(r))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
