package get_availability

import "errors"

var (
	// ErrOfferingNotFound возвращается, когда услуга не найдена
	ErrOfferingNotFound = errors.New("get_availability: service offering not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_availability: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_availability: internal error")
)
