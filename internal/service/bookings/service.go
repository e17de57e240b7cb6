package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
	"github.com/m04kA/SMC-AppointmentService/internal/service/offerings"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Service сервис для чтения и отмены бронирований
type Service struct {
	bookingRepo       BookingRepository
	slots             SlotChecker
	duplicates        DuplicateChecker
	offerings         OfferingCatalog
	defaultResourceID string
	logger            Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	slots SlotChecker,
	duplicates DuplicateChecker,
	offerings OfferingCatalog,
	defaultResourceID string,
	logger Logger,
) *Service {
	if defaultResourceID == "" {
		defaultResourceID = domain.DefaultResourceID
	}
	return &Service{
		bookingRepo:       bookingRepo,
		slots:             slots,
		duplicates:        duplicates,
		offerings:         offerings,
		defaultResourceID: defaultResourceID,
		logger:            logger,
	}
}

// GetByID получает бронирование по ID
// Клиент видит только свои бронирования
func (s *Service) GetByID(ctx context.Context, id string, email string) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%s for customer=%s", id, email)

	booking, err := s.get(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if !booking.OwnedBy(email) {
		s.logger.Warn("GetByID: access denied for customer=%s to booking id=%s", email, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetCustomerBookings получает историю бронирований клиента, отсортированную по времени начала
func (s *Service) GetCustomerBookings(ctx context.Context, email string) (*models.BookingListResponse, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: customer email is required", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.FindByCustomerEmail(ctx, email)
	if err != nil {
		s.logger.Error("GetCustomerBookings: repository error for customer=%s: %v", email, err)
		return nil, fmt.Errorf("%w: GetCustomerBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetCustomerBookings: fetched %d bookings for customer=%s", len(bookings), email)
	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование. Отменить можно только своё подтвержденное бронирование,
// после отмены интервал снова свободен
func (s *Service) Cancel(ctx context.Context, id string, email string) error {
	s.logger.Info("Cancel: cancelling booking id=%s by customer=%s", id, email)

	if !isBookingID(id) {
		s.logger.Warn("Cancel: malformed booking id=%q", id)
		return ErrBookingNotFound
	}

	cancelled, err := s.bookingRepo.Cancel(ctx, id, email)
	if err != nil {
		s.logger.Error("Cancel: repository error for booking id=%s: %v", id, err)
		return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
	}
	if cancelled {
		s.logger.Info("Cancel: booking id=%s cancelled", id)
		return nil
	}

	// Отмена не применилась: выясняем причину
	booking, err := s.get(ctx, "Cancel", id)
	if err != nil {
		return err
	}
	if !booking.OwnedBy(email) {
		s.logger.Warn("Cancel: access denied for customer=%s to booking id=%s", email, id)
		return ErrAccessDenied
	}

	s.logger.Warn("Cancel: booking id=%s cannot be cancelled, status=%s", id, booking.Status)
	return ErrCannotCancel
}

// CheckSlot сообщает, свободен ли слот, и кем он занят.
// Без email клиента любое занятие считается чужим
func (s *Service) CheckSlot(ctx context.Context, req *models.CheckSlotRequest) (*models.SlotStatusResponse, error) {
	timeOfDay, err := types.NewTimeStringFromString(req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid time %q", ErrInvalidInput, req.Time)
	}

	duration := 0
	if req.ServiceOfferingID != "" {
		offering, err := s.offerings.Get(req.ServiceOfferingID)
		if err != nil {
			if errors.Is(err, offerings.ErrOfferingNotFound) {
				return nil, ErrOfferingNotFound
			}
			return nil, fmt.Errorf("%w: CheckSlot - offering: %v", ErrInternal, err)
		}
		duration = offering.DurationMinutes
	}

	resourceID := req.ResourceID
	if resourceID == "" {
		resourceID = s.defaultResourceID
	}
	email := domain.NormalizeEmail(req.CustomerEmail)

	result, err := s.slots.IsBooked(ctx, req.Date, timeOfDay, duration, resourceID, "")
	if err != nil {
		s.logger.Error("CheckSlot: failed to check slot %s %s: %v", req.Date.Format(domain.DateFormat), req.Time, err)
		return nil, fmt.Errorf("%w: CheckSlot - conflicts: %v", ErrInternal, err)
	}

	resp := &models.SlotStatusResponse{IsAvailable: !result.IsBooked}
	if result.IsBooked {
		if result.ConflictingRecord.OwnedBy(email) {
			resp.IsBookedByUser = true
			resp.UserBooking = models.FromDomainBooking(result.ConflictingRecord)
		} else {
			resp.IsBookedByOthers = true
			name := result.ConflictingRecord.CustomerName
			resp.BookedBy = &name
		}
		return resp, nil
	}

	// Свободно на ресурсе, но у клиента может быть запись на этот интервал в другом месте
	if email != "" {
		own, err := s.duplicates.HasExactOrOverlapping(ctx, email, req.Date, timeOfDay, duration)
		if err != nil {
			return nil, fmt.Errorf("%w: CheckSlot - customer bookings: %v", ErrInternal, err)
		}
		if len(own) > 0 {
			resp.IsAvailable = false
			resp.IsBookedByUser = true
			resp.UserBooking = models.FromDomainBooking(own[0])
		}
	}

	return resp, nil
}

// CheckDuplicate проверяет, пересекается ли [start, end) с подтвержденным бронированием клиента
func (s *Service) CheckDuplicate(ctx context.Context, email string, start, end time.Time) (*models.DuplicateCheckResponse, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || !end.After(start) {
		return nil, fmt.Errorf("%w: email and a positive interval are required", ErrInvalidInput)
	}

	result, err := s.duplicates.HasDuplicate(ctx, email, start, end)
	if err != nil {
		s.logger.Error("CheckDuplicate: failed for customer=%s: %v", email, err)
		return nil, fmt.Errorf("%w: CheckDuplicate: %v", ErrInternal, err)
	}

	return &models.DuplicateCheckResponse{
		IsDuplicate:       result.IsDuplicate,
		ConflictingRecord: models.FromDomainBooking(result.ConflictingRecord),
	}, nil
}

// FindCustomerBookings ищет подтвержденные бронирования клиента на дату.
// С временем возвращает записи, начинающиеся в это время или покрывающие его
func (s *Service) FindCustomerBookings(ctx context.Context, req *models.FindCustomerBookingsRequest) (*models.BookingListResponse, error) {
	email := domain.NormalizeEmail(req.CustomerEmail)
	if email == "" {
		return nil, fmt.Errorf("%w: customer email is required", ErrInvalidInput)
	}

	var (
		records []*domain.BookingRecord
		err     error
	)
	if req.Time != nil {
		timeOfDay, parseErr := types.NewTimeStringFromString(*req.Time)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: invalid time %q", ErrInvalidInput, *req.Time)
		}
		records, err = s.duplicates.HasExactOrOverlapping(ctx, email, req.Date, timeOfDay, 0)
	} else {
		records, err = s.bookingRepo.FindByCustomerEmailAndDate(ctx, email, req.Date, nil)
	}
	if err != nil {
		s.logger.Error("FindCustomerBookings: failed for customer=%s: %v", email, err)
		return nil, fmt.Errorf("%w: FindCustomerBookings: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(records), nil
}

func (s *Service) get(ctx context.Context, op string, id string) (*domain.BookingRecord, error) {
	if !isBookingID(id) {
		s.logger.Warn("%s: malformed booking id=%q", op, id)
		return nil, ErrBookingNotFound
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%s not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

// isBookingID оба хранилища выдают UUID; PostgreSQL отвергает другое значение ошибкой 22P02
func isBookingID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
