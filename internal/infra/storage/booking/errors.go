package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrSlotNotAvailable возвращается, когда интервал ресурса пересекается с подтвержденным бронированием
	ErrSlotNotAvailable = errors.New("booking.repository: slot not available")

	// ErrDuplicateBooking возвращается, когда у клиента уже есть пересекающееся подтвержденное бронирование
	ErrDuplicateBooking = errors.New("booking.repository: customer already has an overlapping booking")

	// ErrStoreUnavailable возвращается, когда база недоступна
	ErrStoreUnavailable = errors.New("booking.repository: store unavailable")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
