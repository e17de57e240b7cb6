package offerings

import "errors"

var (
	// ErrOfferingNotFound услуга с таким ID не настроена
	ErrOfferingNotFound = errors.New("offerings: service offering not found")

	// ErrInvalidOffering некорректная конфигурация услуги
	ErrInvalidOffering = errors.New("offerings: invalid service offering")
)
