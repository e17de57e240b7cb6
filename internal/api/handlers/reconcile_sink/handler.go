package reconcile_sink

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	reconcileSink "github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_sink"
)

const (
	msgInvalidBatch = "invalid batch size"
	msgSinkDisabled = "job sink is not configured"
)

type Handler struct {
	useCase ReconcileUseCase
	logger  Logger
}

func NewHandler(useCase ReconcileUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/admin/reconcile?batch=N
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	batch := 0
	if raw := r.URL.Query().Get("batch"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.logger.Warn("POST /admin/reconcile - Invalid batch: %q", raw)
			handlers.RespondBadRequest(w, msgInvalidBatch)
			return
		}
		batch = n
	}

	result, err := h.useCase.Execute(r.Context(), batch)
	if err != nil {
		switch {
		case errors.Is(err, reconcileSink.ErrInvalidInput):
			h.logger.Warn("POST /admin/reconcile - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidBatch)

		case errors.Is(err, reconcileSink.ErrSinkDisabled):
			h.logger.Warn("POST /admin/reconcile - Job sink disabled")
			handlers.RespondServiceUnavailable(w, msgSinkDisabled)

		default:
			h.logger.Error("POST /admin/reconcile - Failed: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/reconcile - attempted=%d, forwarded=%d, failed=%d, skipped=%d",
		result.Attempted, result.Forwarded, result.Failed, result.Skipped)
	handlers.RespondJSON(w, http.StatusOK, result)
}
