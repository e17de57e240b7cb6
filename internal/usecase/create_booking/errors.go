package create_booking

import (
	"errors"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrValidation возвращается при некорректных или неполных входных данных
	ErrValidation = errors.New("create_booking: validation failed")

	// ErrSlotNotAvailable возвращается, когда интервал уже занят на ресурсе
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrDuplicateBooking возвращается, когда у клиента уже есть пересекающееся бронирование
	ErrDuplicateBooking = errors.New("create_booking: duplicate booking")

	// ErrStoreUnavailable возвращается, когда хранилище недоступно и бронирование нельзя гарантировать
	ErrStoreUnavailable = errors.New("create_booking: store unavailable")
)

// Коды отказа для внешнего контракта
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeSlotUnavailable  = "SLOT_UNAVAILABLE"
	CodeDuplicateBooking = "DUPLICATE_BOOKING"
)

// RejectionError отказ в бронировании с понятным пользователю сообщением.
// Для SLOT_UNAVAILABLE в ConflictingRecord только имя владельца и интервал,
// для DUPLICATE_BOOKING - собственная запись клиента
type RejectionError struct {
	Code              string
	Message           string
	ConflictingRecord *domain.BookingRecord
	err               error
}

func (e *RejectionError) Error() string {
	if e.err == nil {
		return e.Code + ": " + e.Message
	}
	return e.err.Error() + ": " + e.Message
}

func (e *RejectionError) Unwrap() error {
	return e.err
}

func validationError(message string) *RejectionError {
	return &RejectionError{Code: CodeValidation, Message: message, err: ErrValidation}
}

func slotUnavailable(conflict *domain.BookingRecord) *RejectionError {
	rejection := &RejectionError{
		Code:    CodeSlotUnavailable,
		Message: "This time slot is no longer available",
		err:     ErrSlotNotAvailable,
	}
	if conflict != nil {
		rejection.Message = "This time slot is already booked by " + conflict.CustomerName
		rejection.ConflictingRecord = &domain.BookingRecord{
			ResourceID:   conflict.ResourceID,
			Date:         conflict.Date,
			TimeOfDay:    conflict.TimeOfDay,
			StartAt:      conflict.StartAt,
			EndAt:        conflict.EndAt,
			CustomerName: conflict.CustomerName,
			Status:       conflict.Status,
		}
	}
	return rejection
}

func duplicateBooking(own *domain.BookingRecord) *RejectionError {
	rejection := &RejectionError{
		Code:    CodeDuplicateBooking,
		Message: "You already have a booking that overlaps this time",
		err:     ErrDuplicateBooking,
	}
	if own != nil {
		rejection.Message = "You already have a booking on " +
			own.Date.Format(domain.DateFormat) + " at " + own.TimeOfDay.String()
		rejection.ConflictingRecord = own
	}
	return rejection
}
