package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgInvalidTime        = "invalid start or end, expected RFC 3339 timestamp"
	msgStoreUnavailable   = "booking storage is temporarily unavailable, please retry"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondRejection(w, http.StatusBadRequest, createBooking.CodeValidation, msgInvalidTime, nil)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		var rejection *createBooking.RejectionError
		switch {
		case errors.As(err, &rejection):
			status := http.StatusConflict
			if rejection.Code == createBooking.CodeValidation {
				status = http.StatusBadRequest
			}
			h.logger.Warn("POST /bookings - Rejected: code=%s, customer=%s, start=%s",
				rejection.Code, req.CustomerEmail, req.Start)
			handlers.RespondRejection(w, status, rejection.Code, rejection.Message, conflictFromRejection(rejection))

		case errors.Is(err, createBooking.ErrStoreUnavailable):
			h.logger.Error("POST /bookings - Store unavailable: customer=%s, error=%v", req.CustomerEmail, err)
			handlers.RespondServiceUnavailable(w, msgStoreUnavailable)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: customer=%s, error=%v", req.CustomerEmail, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	if !result.SinkForwarded && result.SinkError != nil {
		h.logger.Warn("POST /bookings - Booking %s stored but not forwarded: %s", result.Record.ID, *result.SinkError)
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%s, customer=%s",
		result.Record.ID, result.Record.CustomerEmail)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
