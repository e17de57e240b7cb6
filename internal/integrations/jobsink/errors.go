package jobsink

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("jobsink client: internal error")

	// ErrUnavailable job sink не ответил (сеть, таймаут, 5xx)
	ErrUnavailable = errors.New("jobsink client: service unavailable")

	// ErrRejected job sink отклонил заявку (4xx)
	ErrRejected = errors.New("jobsink client: job rejected")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("jobsink client: invalid response")
)
