package reconcile_sink

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	sinkOK     = "ok"
	sinkFailed = "failed"

	// DefaultBatchSize размер пачки, если он не задан
	DefaultBatchSize = 50
)

// UseCase повторно передает в job sink подтвержденные бронирования,
// которые еще не дошли до него (pending или failed)
type UseCase struct {
	bookingRepo BookingRepository
	sink        JobSink
	busyCache   BusyCache
	metrics     Metrics
	sinkTimeout time.Duration
	logger      Logger
}

// NewUseCase создает новый экземпляр use case. busyCache и metrics могут быть nil
func NewUseCase(
	bookingRepo BookingRepository,
	sink JobSink,
	busyCache BusyCache,
	metrics Metrics,
	sinkTimeout time.Duration,
	logger Logger,
) *UseCase {
	if sinkTimeout <= 0 {
		sinkTimeout = domain.DefaultSinkTimeout
	}
	return &UseCase{
		bookingRepo: bookingRepo,
		sink:        sink,
		busyCache:   busyCache,
		metrics:     metrics,
		sinkTimeout: sinkTimeout,
		logger:      logger,
	}
}

// Execute обрабатывает одну пачку. Ошибка отдельной заявки не прерывает проход
func (uc *UseCase) Execute(ctx context.Context, batchSize int) (*Result, error) {
	if uc.sink == nil {
		return nil, ErrSinkDisabled
	}
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize < 0 || batchSize > domain.MaxReconcileBatchSize {
		return nil, fmt.Errorf("%w: batch size must be in [1, %d]", ErrInvalidInput, domain.MaxReconcileBatchSize)
	}

	lease := domain.ForwardLease(uc.sinkTimeout)
	pending, err := uc.bookingRepo.FindPendingForward(ctx, lease, batchSize)
	if err != nil {
		uc.logger.Error("ReconcileSink: failed to load pending bookings: %v", err)
		return nil, fmt.Errorf("%w: FindPendingForward: %v", ErrInternal, err)
	}

	result := &Result{}
	for _, record := range pending {
		if ctx.Err() != nil {
			break
		}

		// Inline-передача из create_booking или параллельный проход могли успеть раньше
		claimed, err := uc.bookingRepo.ClaimForward(ctx, record.ID, lease)
		if err != nil {
			uc.logger.Error("ReconcileSink: failed to claim booking id=%s: %v", record.ID, err)
			result.Attempted++
			result.Failed++
			result.Failures = append(result.Failures, Failure{BookingID: record.ID, Error: err.Error()})
			continue
		}
		if !claimed {
			result.Skipped++
			continue
		}
		result.Attempted++

		if err := uc.forward(ctx, record); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, Failure{BookingID: record.ID, Error: err.Error()})
			continue
		}
		result.Forwarded++
	}

	if result.Attempted > 0 {
		uc.logger.Info("ReconcileSink: attempted=%d, forwarded=%d, failed=%d, skipped=%d",
			result.Attempted, result.Forwarded, result.Failed, result.Skipped)
	}
	return result, nil
}

func (uc *UseCase) forward(ctx context.Context, record *domain.BookingRecord) error {
	sinkCtx, cancel := context.WithTimeout(ctx, uc.sinkTimeout)
	defer cancel()

	externalID, err := uc.sink.SubmitJob(sinkCtx, record)
	if err != nil {
		uc.inc(sinkFailed)
		uc.logger.Warn("ReconcileSink: booking id=%s still not forwarded: %v", record.ID, err)
		if markErr := uc.bookingRepo.MarkForwardFailed(ctx, record.ID, err.Error()); markErr != nil {
			uc.logger.Error("ReconcileSink: failed to mark booking id=%s: %v", record.ID, markErr)
		}
		return err
	}

	uc.inc(sinkOK)
	if err := uc.bookingRepo.MarkForwarded(ctx, record.ID, externalID); err != nil {
		// Заявка уже создана во внешней системе; при следующем проходе уйдет повторно
		uc.logger.Error("ReconcileSink: booking id=%s forwarded as job %s but not marked: %v", record.ID, externalID, err)
		return fmt.Errorf("mark forwarded: %w", err)
	}

	if uc.busyCache != nil {
		uc.busyCache.Invalidate(ctx, record.Date, record.ResourceID)
	}
	return nil
}

func (uc *UseCase) inc(outcome string) {
	if uc.metrics != nil {
		uc.metrics.IncSinkForward(outcome)
	}
}
