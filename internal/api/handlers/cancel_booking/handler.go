package cancel_booking

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
)

const (
	msgInvalidBookingID = "invalid booking id"
	msgMissingCustomer  = "missing customer identity"
	msgNotFound         = "booking not found"
	msgForbidden        = "access denied"
	msgCannotCancel     = "booking cannot be cancelled"
)

// CancelBookingResponse HTTP response model
type CancelBookingResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
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

// Handle PATCH /api/v1/bookings/{bookingId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["bookingId"]
	if bookingID == "" {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Empty booking ID")
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	email, ok := middleware.GetCustomerEmail(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Missing customer email")
		handlers.RespondUnauthorized(w, msgMissingCustomer)
		return
	}

	err := h.service.Cancel(r.Context(), bookingID, email)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Access denied: booking_id=%s, customer=%s", bookingID, email)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrCannotCancel):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Cannot cancel: booking_id=%s", bookingID)
			handlers.RespondError(w, http.StatusConflict, "CANNOT_CANCEL", msgCannotCancel)

		default:
			h.logger.Error("PATCH /bookings/{id}/cancel - Failed to cancel booking: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/cancel - Booking cancelled successfully: booking_id=%s, customer=%s", bookingID, email)
	handlers.RespondJSON(w, http.StatusOK, CancelBookingResponse{Status: handlers.StatusSuccess, ID: bookingID})
}
