package conflicts

import "errors"

var (
	// ErrLoadBookings не удалось прочитать бронирования из хранилища
	ErrLoadBookings = errors.New("conflicts: failed to load bookings")

	// ErrInvalidDuration длительность проверяемого интервала отрицательна
	ErrInvalidDuration = errors.New("conflicts: invalid duration")
)
