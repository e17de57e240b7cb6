package reconcile_sink

import (
	"context"
	"time"
)

// Worker периодически запускает сверку с job sink до отмены контекста
type Worker struct {
	uc        *UseCase
	interval  time.Duration
	batchSize int
	logger    Logger
}

// NewWorker создает воркер сверки
func NewWorker(uc *UseCase, interval time.Duration, batchSize int, logger Logger) *Worker {
	return &Worker{uc: uc, interval: interval, batchSize: batchSize, logger: logger}
}

// Run блокируется до ctx.Done()
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("ReconcileSink: worker started, interval=%s, batch=%d", w.interval, w.batchSize)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ReconcileSink: worker stopped")
			return
		case <-ticker.C:
			if _, err := w.uc.Execute(ctx, w.batchSize); err != nil {
				w.logger.Error("ReconcileSink: pass failed: %v", err)
			}
		}
	}
}
