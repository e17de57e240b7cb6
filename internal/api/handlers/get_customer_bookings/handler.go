package get_customer_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
)

const msgMissingCustomer = "missing customer identity"

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

// Handle GET /api/v1/customers/me/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetCustomerEmail(r.Context())
	if !ok {
		h.logger.Warn("GET /customers/me/bookings - Missing customer email")
		handlers.RespondUnauthorized(w, msgMissingCustomer)
		return
	}

	list, err := h.service.GetCustomerBookings(r.Context(), email)
	if err != nil {
		h.logger.Error("GET /customers/me/bookings - Failed to get bookings: customer=%s, error=%v", email, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /customers/me/bookings - Retrieved %d bookings for customer=%s", len(list.Bookings), email)
	handlers.RespondJSON(w, http.StatusOK, list)
}
