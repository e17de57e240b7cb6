package reconcile_sink

import (
	"context"

	reconcileSink "github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_sink"
)

type ReconcileUseCase interface {
	Execute(ctx context.Context, batchSize int) (*reconcileSink.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
