package check_duplicate

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgInvalidInterval    = "customerEmail, start and end (RFC 3339, end after start) are required"
)

// CheckDuplicateRequest HTTP request model
type CheckDuplicateRequest struct {
	CustomerEmail string `json:"customerEmail"`
	Start         string `json:"start"`
	End           string `json:"end"`
}

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/check-duplicate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CheckDuplicateRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/check-duplicate - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	start, errStart := time.Parse(time.RFC3339, req.Start)
	end, errEnd := time.Parse(time.RFC3339, req.End)
	if errStart != nil || errEnd != nil {
		h.logger.Warn("POST /bookings/check-duplicate - Invalid interval: start=%q, end=%q", req.Start, req.End)
		handlers.RespondBadRequest(w, msgInvalidInterval)
		return
	}

	result, err := h.service.CheckDuplicate(r.Context(), req.CustomerEmail, start, end)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("POST /bookings/check-duplicate - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInterval)

		default:
			h.logger.Error("POST /bookings/check-duplicate - Failed: customer=%s, error=%v", req.CustomerEmail, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
