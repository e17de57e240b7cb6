package create_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/internal/service/offerings"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Исходы попытки бронирования для метрик
const (
	outcomeConfirmed       = "confirmed"
	outcomeValidation      = "validation_error"
	outcomeSlotUnavailable = "slot_unavailable"
	outcomeDuplicate       = "duplicate_booking"
	outcomeStoreError      = "store_unavailable"

	sinkOK      = "ok"
	sinkFailed  = "failed"
	sinkSkipped = "skipped"
)

// UseCase оркестратор создания бронирования:
// валидация -> проверка конфликтов и дубликатов -> запись -> передача в job sink
type UseCase struct {
	bookingRepo       BookingRepository
	slots             SlotChecker
	duplicates        DuplicateChecker
	offerings         OfferingCatalog
	calendar          SlotCalendar
	sink              JobSink
	busyCache         BusyCache
	txManager         TransactionManager
	metrics           Metrics
	sinkTimeout       time.Duration
	defaultResourceID string
	logger            Logger
}

// Deps зависимости use case. Sink, BusyCache и Metrics опциональны
type Deps struct {
	BookingRepo       BookingRepository
	Slots             SlotChecker
	Duplicates        DuplicateChecker
	Offerings         OfferingCatalog
	Calendar          SlotCalendar
	Sink              JobSink
	BusyCache         BusyCache
	TxManager         TransactionManager
	Metrics           Metrics
	SinkTimeout       time.Duration
	DefaultResourceID string
	Logger            Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(deps Deps) *UseCase {
	timeout := deps.SinkTimeout
	if timeout <= 0 {
		timeout = domain.DefaultSinkTimeout
	}
	resourceID := deps.DefaultResourceID
	if resourceID == "" {
		resourceID = domain.DefaultResourceID
	}
	var metrics Metrics = noopMetrics{}
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}

	return &UseCase{
		bookingRepo:       deps.BookingRepo,
		slots:             deps.Slots,
		duplicates:        deps.Duplicates,
		offerings:         deps.Offerings,
		calendar:          deps.Calendar,
		sink:              deps.Sink,
		busyCache:         deps.BusyCache,
		txManager:         deps.TxManager,
		metrics:           metrics,
		sinkTimeout:       timeout,
		defaultResourceID: resourceID,
		logger:            deps.Logger,
	}
}

// Execute выполняет use case создания бронирования.
// Проверка и запись идут в одной сериализуемой транзакции, а хранилище дополнительно
// запрещает пересечения на уровне ограничений, поэтому из двух одновременных
// запросов на один слот проходит ровно один.
// Отказы возвращаются как *RejectionError; ErrStoreUnavailable - единственная жесткая ошибка
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Validated
	if rejection := validateRequest(req); rejection != nil {
		return nil, uc.reject(rejection, outcomeValidation)
	}

	offering, err := uc.offerings.Get(req.ServiceOfferingID)
	if err != nil {
		if errors.Is(err, offerings.ErrOfferingNotFound) {
			return nil, uc.reject(validationError("Unknown service offering"), outcomeValidation)
		}
		return nil, uc.storeFailure(fmt.Errorf("%w: failed to get offering: %w", ErrStoreUnavailable, err))
	}

	resourceID := req.ResourceID
	if resourceID == "" {
		resourceID = uc.defaultResourceID
	}
	slot := domain.NewTimeSlot(req.Start, offering.DurationMinutes, resourceID)

	if rejection := validateSlot(uc.calendar, req, offering, slot); rejection != nil {
		return nil, uc.reject(rejection, outcomeValidation)
	}

	phone, rejection := normalizePhone(req.Customer.Phone)
	if rejection != nil {
		return nil, uc.reject(rejection, outcomeValidation)
	}

	email := domain.NormalizeEmail(req.Customer.Email)
	uc.logger.Info("CreateBooking: customer=%s, offering=%s, resource=%s, start=%s",
		email, offering.ID, resourceID, slot.Start.Format(time.RFC3339))

	day := uc.calendar.Hours().Day(slot.Start)
	record := &domain.BookingRecord{
		ResourceID:        resourceID,
		Date:              day,
		TimeOfDay:         types.NewTimeString(slot.Start.In(day.Location())),
		StartAt:           slot.Start,
		EndAt:             slot.End,
		ServiceOfferingID: offering.ID,
		CustomerName:      strings.TrimSpace(req.Customer.Name),
		CustomerEmail:     email,
		CustomerPhone:     phone,
		ServiceAddress:    ptr.NilIfZero(trimmed(req.ServiceAddress)),
		Notes:             ptr.NilIfZero(trimmed(req.Notes)),
	}

	// 2-3. ConflictChecked + Persisted
	var created *domain.BookingRecord
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// Собственную запись клиента ловит проверка дубликатов ниже
		conflict, err := uc.slots.Check(txCtx, slot, email)
		if err != nil {
			return fmt.Errorf("%w: failed to check slot: %w", ErrStoreUnavailable, err)
		}
		if conflict.IsBooked {
			uc.logger.Warn("CreateBooking: slot %s on %s already taken", slot.Start.Format(time.RFC3339), resourceID)
			return slotUnavailable(conflict.ConflictingRecord)
		}

		duplicate, err := uc.duplicates.HasDuplicate(txCtx, email, slot.Start, slot.End)
		if err != nil {
			return fmt.Errorf("%w: failed to check duplicates: %w", ErrStoreUnavailable, err)
		}
		if duplicate.IsDuplicate {
			uc.logger.Warn("CreateBooking: customer %s already has booking id=%s", email, duplicate.ConflictingRecord.ID)
			return duplicateBooking(duplicate.ConflictingRecord)
		}

		created, err = uc.bookingRepo.Create(txCtx, record)
		if err != nil {
			return fmt.Errorf("%w: failed to create booking: %w", ErrStoreUnavailable, err)
		}
		return nil
	})

	if err != nil {
		return nil, uc.classifyTxError(ctx, err, slot, email)
	}

	uc.metrics.IncBookingAttempt(outcomeConfirmed)
	uc.logger.Info("CreateBooking: booking id=%s persisted", created.ID)

	// 4. ForwardedToSink: запись уже зафиксирована, транзакция закрыта
	response := &Response{Record: created, Offering: *offering}
	uc.forward(ctx, response)

	// 5. Confirmed
	return response, nil
}

// classifyTxError сводит ошибку транзакции к отказу или ErrStoreUnavailable
func (uc *UseCase) classifyTxError(ctx context.Context, err error, slot domain.TimeSlot, email string) error {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		outcome := outcomeSlotUnavailable
		if rejection.Code == CodeDuplicateBooking {
			outcome = outcomeDuplicate
		}
		return uc.reject(rejection, outcome)
	}

	// Гонку проиграли на уровне хранилища: конкурирующая запись уже зафиксирована
	if errors.Is(err, bookingRepo.ErrSlotNotAvailable) || errors.Is(err, txmanager.ErrSerialization) {
		uc.logger.Warn("CreateBooking: concurrent booking won slot %s: %v", slot.Start.Format(time.RFC3339), err)
		var conflict *domain.BookingRecord
		if res, checkErr := uc.slots.Check(ctx, slot, ""); checkErr == nil && res.IsBooked {
			conflict = res.ConflictingRecord
		}
		return uc.reject(slotUnavailable(conflict), outcomeSlotUnavailable)
	}

	if errors.Is(err, bookingRepo.ErrDuplicateBooking) {
		var own *domain.BookingRecord
		if res, checkErr := uc.duplicates.HasDuplicate(ctx, email, slot.Start, slot.End); checkErr == nil && res.IsDuplicate {
			own = res.ConflictingRecord
		}
		return uc.reject(duplicateBooking(own), outcomeDuplicate)
	}

	return uc.storeFailure(err)
}

// forward передает бронирование в job sink с собственным таймаутом.
// Отмена входящего запроса не прерывает передачу
func (uc *UseCase) forward(ctx context.Context, response *Response) {
	record := response.Record

	if uc.sink == nil {
		uc.metrics.IncSinkForward(sinkSkipped)
		return
	}

	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.sinkTimeout)
	defer cancel()

	// Запись уже видна reconcile_sink: передает тот, кто первым ее захватил
	claimed, err := uc.bookingRepo.ClaimForward(sinkCtx, record.ID, domain.ForwardLease(uc.sinkTimeout))
	if err != nil || !claimed {
		uc.metrics.IncSinkForward(sinkSkipped)
		uc.logger.Warn("CreateBooking: booking id=%s not forwarded inline (claimed=%t): %v", record.ID, claimed, err)
		return
	}
	record.SinkStatus = domain.SinkForwarding

	externalID, err := uc.sink.SubmitJob(sinkCtx, record)
	if err != nil {
		uc.metrics.IncSinkForward(sinkFailed)
		uc.logger.Error("CreateBooking: booking id=%s kept locally, job sink forward failed: %v", record.ID, err)

		reason := err.Error()
		response.SinkError = &reason
		record.SinkStatus = domain.SinkFailed
		record.SinkError = &reason

		if markErr := uc.bookingRepo.MarkForwardFailed(sinkCtx, record.ID, reason); markErr != nil {
			uc.logger.Error("CreateBooking: failed to mark booking id=%s as not forwarded: %v", record.ID, markErr)
		}
		return
	}

	uc.metrics.IncSinkForward(sinkOK)
	response.SinkForwarded = true
	response.ExternalJobID = &externalID
	record.ExternalJobID = &externalID
	record.SinkStatus = domain.SinkForwarded

	if err := uc.bookingRepo.MarkForwarded(sinkCtx, record.ID, externalID); err != nil {
		uc.logger.Error("CreateBooking: booking id=%s forwarded as job %s but not marked: %v", record.ID, externalID, err)
	}

	if uc.busyCache != nil {
		uc.busyCache.Invalidate(sinkCtx, record.Date, record.ResourceID)
	}
}

func (uc *UseCase) reject(rejection *RejectionError, outcome string) error {
	uc.metrics.IncBookingAttempt(outcome)
	uc.logger.Warn("CreateBooking: rejected %s: %s", rejection.Code, rejection.Message)
	return rejection
}

func (uc *UseCase) storeFailure(err error) error {
	uc.metrics.IncBookingAttempt(outcomeStoreError)
	uc.logger.Error("CreateBooking: store unavailable: %v", err)
	if !errors.Is(err, ErrStoreUnavailable) {
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

type noopMetrics struct{}

func (noopMetrics) IncBookingAttempt(string) {}
func (noopMetrics) IncSinkForward(string)    {}
