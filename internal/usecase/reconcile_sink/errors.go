package reconcile_sink

import "errors"

var (
	// ErrSinkDisabled возвращается, когда job sink не настроен
	ErrSinkDisabled = errors.New("reconcile_sink: job sink is not configured")

	// ErrInvalidInput возвращается при некорректном размере пачки
	ErrInvalidInput = errors.New("reconcile_sink: invalid input")

	// ErrInternal возвращается, когда не удалось прочитать очередь из хранилища
	ErrInternal = errors.New("reconcile_sink: internal error")
)
